// Package mp3 estimates the duration of an MP3 elementary stream from its
// frame headers, the way a browser does it for progressive downloads: the
// first frames are parsed up front and later chunks refine the estimate as
// they arrive.
package mp3

import (
	"log/slog"
	"time"
)

const (
	// maxSyncSearch is how far into the data (after any ID3 tag) a frame
	// sync must appear before the stream is declared not to be MP3.
	maxSyncSearch = 200 * 1024

	compactThreshold = 16 * 1024
)

type status int

const (
	statusUnknown status = iota
	statusMP3
	statusNotMP3
)

// Parser is an incremental MP3 frame parser. It is not safe for concurrent
// use; callers serialize Parse calls.
type Parser struct {
	length int64 // total stream length in bytes, -1 when unknown

	status status
	pos    int64  // absolute offset of the next byte expected
	buf    []byte // unconsumed bytes starting at pos-len(buf)
	skip   int64  // bytes to discard before looking for the next header

	checkedID3 bool
	scanned    int64

	first       FrameHeader
	mp3Offset   int64
	frames      int64
	frameBytes  int64
	exactFrames int64
}

// NewParser returns a parser for a stream of the given length (-1 unknown).
func NewParser(length int64) *Parser {
	return &Parser{length: length, mp3Offset: -1}
}

// Parse feeds the bytes found at offset. Chunks may overlap or repeat; the
// already parsed part is ignored. A gap before the first frame is confirmed
// makes the stream undecidable and it is reported as not MP3.
func (p *Parser) Parse(data []byte, offset int64) {
	if p.status == statusNotMP3 || len(data) == 0 {
		return
	}

	end := offset + int64(len(data))
	if end <= p.pos {
		return
	}
	if offset < p.pos {
		data = data[p.pos-offset:]
		offset = p.pos
	}
	if offset > p.pos {
		if p.status == statusUnknown {
			slog.Debug("mp3: gap before first frame, giving up",
				"expected", p.pos,
				"offset", offset,
			)
			p.status = statusNotMP3
			return
		}
		// resync after a hole in the data
		p.buf = p.buf[:0]
		p.skip = 0
		p.pos = offset
	}

	p.buf = append(p.buf, data...)
	p.pos = end
	p.consume()
}

func (p *Parser) bufStart() int64 {
	return p.pos - int64(len(p.buf))
}

func (p *Parser) consume() {
	for p.status != statusNotMP3 {
		if p.skip > 0 {
			n := p.skip
			if n > int64(len(p.buf)) {
				n = int64(len(p.buf))
			}
			p.buf = p.buf[n:]
			p.skip -= n
			if p.skip > 0 {
				return
			}
		}

		if !p.checkedID3 {
			size, ok := id3v2Size(p.buf)
			if !ok {
				return
			}
			p.checkedID3 = true
			if size > 0 {
				slog.Debug("mp3: skipping ID3v2 tag", "size", size)
				p.skip = size
				continue
			}
		}

		if !p.step() {
			p.compact()
			return
		}
	}
}

// step looks for one frame at the head of the buffer. It returns false when
// more data is needed.
func (p *Parser) step() bool {
	for i := 0; i+4 <= len(p.buf); i++ {
		h, err := ParseFrameHeader(p.buf[i:])
		if err != nil {
			continue
		}
		flen := h.FrameLength()
		if flen < 4 {
			continue
		}

		if p.status == statusUnknown {
			// confirm with the header right after this frame
			if i+flen+4 > len(p.buf) {
				p.drop(i)
				return false
			}
			next, err := ParseFrameHeader(p.buf[i+flen:])
			if err != nil || !h.sameStream(next) {
				continue
			}
			p.confirm(h, i, p.buf[i:i+flen])
		} else {
			if !h.sameStream(p.first) {
				continue
			}
			p.frames++
			p.frameBytes += int64(flen)
		}

		p.drop(i)
		p.skip = int64(flen)
		return true
	}

	// no header: keep only a tail that may hold the start of one
	if n := len(p.buf) - 3; n > 0 {
		p.drop(n)
	}
	return false
}

func (p *Parser) confirm(h FrameHeader, at int, frame []byte) {
	p.status = statusMP3
	p.first = h
	p.mp3Offset = p.bufStart() + int64(at)

	if n, ok := vbrFrameCount(h, frame); ok && n > 0 {
		p.exactFrames = n
	} else {
		p.frames++
		p.frameBytes += int64(len(frame))
	}

	slog.Debug("mp3: stream confirmed",
		"offset", p.mp3Offset,
		"sample_rate", h.SampleRate,
		"bitrate", h.Bitrate,
		"vbr_frames", p.exactFrames,
	)
}

// drop discards n bytes at the head of the buffer, counting them against the
// sync search budget while the stream is undecided.
func (p *Parser) drop(n int) {
	p.buf = p.buf[n:]
	if p.status == statusUnknown {
		p.scanned += int64(n)
		if p.scanned > maxSyncSearch {
			slog.Debug("mp3: no frame sync found", "scanned", p.scanned)
			p.status = statusNotMP3
		}
	}
}

// compact releases the backing array once most of it has been consumed.
func (p *Parser) compact() {
	if cap(p.buf) > compactThreshold && len(p.buf) < cap(p.buf)/4 {
		p.buf = append([]byte(nil), p.buf...)
	}
}

// ParsedHeaders reports whether enough data was seen to decide if the stream
// is MP3.
func (p *Parser) ParsedHeaders() bool {
	return p.status != statusUnknown
}

// IsMP3 reports a confirmed MP3 stream.
func (p *Parser) IsMP3() bool {
	return p.status == statusMP3
}

// NeedsData reports whether more data can still improve the duration.
func (p *Parser) NeedsData() bool {
	if p.status == statusNotMP3 {
		return false
	}
	if p.exactFrames > 0 {
		return false
	}
	return p.length < 0 || p.pos < p.length
}

// MP3Offset is the offset of the first audio frame, past any ID3 tag, or -1.
func (p *Parser) MP3Offset() int64 {
	return p.mp3Offset
}

// Duration returns the exact duration when a VBR header announced the frame
// count, otherwise an estimate from the average frame size so far. It
// returns -1 until the stream is confirmed.
func (p *Parser) Duration() time.Duration {
	if p.status != statusMP3 || p.first.SampleRate == 0 {
		return -1
	}

	frames := float64(p.frames)
	switch {
	case p.exactFrames > 0:
		frames = float64(p.exactFrames)
	case p.length > 0 && p.pos < p.length && p.frames > 0:
		avg := float64(p.frameBytes) / float64(p.frames)
		frames = float64(p.length-p.mp3Offset) / avg
	}

	samples := frames * float64(p.first.SamplesPerFrame())
	return time.Duration(samples / float64(p.first.SampleRate) * float64(time.Second))
}
