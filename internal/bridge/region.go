package bridge

import (
	"image"
	"math"
)

// Limits bound what the collector accepts from the engine.
type Limits struct {
	MaxChannels       int
	MaxVideoDimension int
	MaxVideoArea      int64
}

// DefaultLimits matches the caps the engine branches request.
func DefaultLimits() Limits {
	return Limits{
		MaxChannels:       2,
		MaxVideoDimension: 4000,
		MaxVideoArea:      4000 * 4000,
	}
}

// ScaleDisplayByAspectRatio stretches the display size by the pixel aspect
// ratio, widening for PAR > 1 and heightening for PAR < 1.
func ScaleDisplayByAspectRatio(display image.Point, par float64) image.Point {
	if par <= 0 || par == 1 || math.IsNaN(par) || math.IsInf(par, 0) {
		return display
	}
	if par > 1 {
		display.X = int(math.Round(float64(display.X) * par))
	} else {
		display.Y = int(math.Round(float64(display.Y) / par))
	}
	return display
}

// IsValidVideoRegion reports whether the frame, the picture inside it and the
// display size are non-empty and within limits.
func (l Limits) IsValidVideoRegion(frame image.Point, picture image.Rectangle, display image.Point) bool {
	return l.validSize(frame) &&
		l.validSize(display) &&
		picture.Min.X >= 0 && picture.Min.Y >= 0 &&
		l.validSize(picture.Size()) &&
		picture.Max.X <= frame.X && picture.Max.Y <= frame.Y
}

func (l Limits) validSize(p image.Point) bool {
	if p.X <= 0 || p.Y <= 0 || p.X > math.MaxInt32 || p.Y > math.MaxInt32 {
		return false
	}
	if p.X > l.MaxVideoDimension || p.Y > l.MaxVideoDimension {
		return false
	}
	return int64(p.X)*int64(p.Y) <= l.MaxVideoArea
}
