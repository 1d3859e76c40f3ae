package bridge

import (
	"encoding/binary"
	"fmt"
	"image"
)

// roundUp rounds n up to a multiple of m (a power of two).
func roundUp(n, m int) int {
	return (n + m - 1) &^ (m - 1)
}

// i420Layout returns the plane strides and sizes GStreamer uses for I420
// at the given dimensions (default 4-byte row alignment).
func i420Layout(width, height int) (yStride, cStride, ySize, cSize int) {
	yStride = roundUp(width, 4)
	cStride = roundUp(roundUp(width, 2)/2, 4)
	ySize = yStride * roundUp(height, 2)
	cSize = cStride * (roundUp(height, 2) / 2)
	return yStride, cStride, ySize, cSize
}

// ConvertI420 wraps a packed I420 buffer in an image. The image aliases data.
func ConvertI420(data []byte, width, height int) (*image.YCbCr, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bridge: invalid frame size %dx%d", width, height)
	}
	yStride, cStride, ySize, cSize := i420Layout(width, height)
	if len(data) < ySize+2*cSize {
		return nil, fmt.Errorf("bridge: short I420 buffer: got %d bytes, need %d",
			len(data), ySize+2*cSize)
	}

	return &image.YCbCr{
		Y:              data[:ySize],
		Cb:             data[ySize : ySize+cSize],
		Cr:             data[ySize+cSize : ySize+2*cSize],
		YStride:        yStride,
		CStride:        cStride,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}, nil
}

// ConvertS16LE decodes interleaved little-endian 16-bit PCM. A trailing
// partial frame is dropped.
func ConvertS16LE(data []byte, channels int) (samples []int16, frames int) {
	if channels <= 0 {
		return nil, 0
	}
	frames = len(data) / 2 / channels
	samples = make([]int16, frames*channels)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return samples, frames
}
