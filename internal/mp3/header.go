package mp3

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidHeader is returned when four bytes do not form a usable MPEG
// audio frame header.
var ErrInvalidHeader = errors.New("invalid MPEG audio frame header")

// MPEG audio versions as encoded in the header.
const (
	version25 = 0
	version2  = 2
	version1  = 3
)

// Layers as encoded in the header.
const (
	layer3 = 1
	layer2 = 2
	layer1 = 3
)

// Bitrates in kbit/s (ISO 11172-3, ISO 13818-3), index 0 is "free format".
var (
	bitratesV1L1 = [15]int{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448}
	bitratesV1L2 = [15]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384}
	bitratesV1L3 = [15]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}
	bitratesV2L1 = [15]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256}
	bitratesV2L3 = [15]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160}
)

var sampleRates = map[int][3]int{
	version1:  {44100, 48000, 32000},
	version2:  {22050, 24000, 16000},
	version25: {11025, 12000, 8000},
}

// FrameHeader is a decoded MPEG audio frame header.
type FrameHeader struct {
	Version    int
	Layer      int
	Bitrate    int // bit/s
	SampleRate int
	Padding    bool
	Mono       bool
}

// ParseFrameHeader decodes the four header bytes at the start of b.
// Free-format and reserved values are rejected.
func ParseFrameHeader(b []byte) (FrameHeader, error) {
	if len(b) < 4 {
		return FrameHeader{}, ErrInvalidHeader
	}
	// Sync word: 11 set bits
	if b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return FrameHeader{}, ErrInvalidHeader
	}

	version := int(b[1]>>3) & 0x03
	layer := int(b[1]>>1) & 0x03
	bitrateIdx := int(b[2]>>4) & 0x0F
	rateIdx := int(b[2]>>2) & 0x03

	if version == 1 || layer == 0 || bitrateIdx == 0 || bitrateIdx == 15 || rateIdx == 3 {
		return FrameHeader{}, ErrInvalidHeader
	}

	var kbps int
	switch {
	case version == version1 && layer == layer1:
		kbps = bitratesV1L1[bitrateIdx]
	case version == version1 && layer == layer2:
		kbps = bitratesV1L2[bitrateIdx]
	case version == version1 && layer == layer3:
		kbps = bitratesV1L3[bitrateIdx]
	case layer == layer1:
		kbps = bitratesV2L1[bitrateIdx]
	default:
		kbps = bitratesV2L3[bitrateIdx]
	}

	return FrameHeader{
		Version:    version,
		Layer:      layer,
		Bitrate:    kbps * 1000,
		SampleRate: sampleRates[version][rateIdx],
		Padding:    (b[2]>>1)&0x01 == 1,
		Mono:       b[3]>>6 == 3,
	}, nil
}

// SamplesPerFrame returns the number of PCM samples per channel in a frame.
func (h FrameHeader) SamplesPerFrame() int {
	switch {
	case h.Layer == layer1:
		return 384
	case h.Layer == layer3 && h.Version != version1:
		return 576
	default:
		return 1152
	}
}

// FrameLength returns the size in bytes of the whole frame, header included.
func (h FrameHeader) FrameLength() int {
	slot := 1
	if h.Layer == layer1 {
		slot = 4
	}
	n := h.SamplesPerFrame() / 8 * h.Bitrate / h.SampleRate
	if h.Layer == layer1 {
		n = n / slot * slot
	}
	if h.Padding {
		n += slot
	}
	return n
}

// sameStream reports whether two headers can belong to the same stream.
func (h FrameHeader) sameStream(o FrameHeader) bool {
	return h.Version == o.Version && h.Layer == o.Layer && h.SampleRate == o.SampleRate
}

// sideInfoSize is the layer III side information size following the header.
func (h FrameHeader) sideInfoSize() int {
	switch {
	case h.Version == version1 && h.Mono:
		return 17
	case h.Version == version1:
		return 32
	case h.Mono:
		return 9
	default:
		return 17
	}
}

// vbrFrameCount looks for a Xing/Info or VBRI header inside the first frame
// and returns the total frame count it announces.
func vbrFrameCount(h FrameHeader, frame []byte) (int64, bool) {
	if h.Layer == layer3 {
		off := 4 + h.sideInfoSize()
		if len(frame) >= off+12 {
			tag := string(frame[off : off+4])
			if tag == "Xing" || tag == "Info" {
				flags := binary.BigEndian.Uint32(frame[off+4 : off+8])
				if flags&0x01 != 0 {
					return int64(binary.BigEndian.Uint32(frame[off+8 : off+12])), true
				}
				return 0, false
			}
		}
	}

	const vbriOffset = 4 + 32
	if len(frame) >= vbriOffset+18 && string(frame[vbriOffset:vbriOffset+4]) == "VBRI" {
		return int64(binary.BigEndian.Uint32(frame[vbriOffset+14 : vbriOffset+18])), true
	}
	return 0, false
}

// id3v2Size returns the full size of an ID3v2 tag starting at b, or 0 when b
// does not start with one. ok is false when more bytes are needed to decide.
func id3v2Size(b []byte) (size int64, ok bool) {
	if len(b) < 10 {
		if len(b) >= 3 && string(b[:3]) != "ID3" {
			return 0, true
		}
		return 0, false
	}
	if string(b[:3]) != "ID3" {
		return 0, true
	}
	// syncsafe integer: 7 bits per byte
	for _, c := range b[6:10] {
		if c&0x80 != 0 {
			return 0, true
		}
	}
	size = int64(b[6])<<21 | int64(b[7])<<14 | int64(b[8])<<7 | int64(b[9])
	size += 10
	if b[5]&0x10 != 0 {
		// footer present
		size += 10
	}
	return size, true
}
