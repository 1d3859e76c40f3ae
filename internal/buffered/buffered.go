// Package buffered converts the provider's cached byte ranges into playback
// time ranges.
package buffered

import (
	"log/slog"
	"time"
)

// ByteRange is a half-open range of cached bytes [Start, End).
type ByteRange struct {
	Start int64
	End   int64
}

// TimeRange is a range of playback time [Start, End].
type TimeRange struct {
	Start time.Duration
	End   time.Duration
}

// Cache reports what the provider holds.
type Cache interface {
	IsDataCachedToEnd(offset int64) bool
	CachedRanges() []ByteRange
}

// Converter maps input byte offsets to stream time.
type Converter interface {
	ConvertBytesToTime(bytes int64) (time.Duration, bool)
}

// Ranges returns the buffered time ranges in provider order. A fully cached
// resource with a known duration reports [0, duration]. Ranges whose
// endpoints the engine cannot convert yet are skipped.
func Ranges(cache Cache, conv Converter, dataOffset int64, duration time.Duration) []TimeRange {
	if cache.IsDataCachedToEnd(0) && duration > 0 {
		return []TimeRange{{Start: 0, End: duration}}
	}

	var out []TimeRange
	for _, r := range cache.CachedRanges() {
		start, ok := conv.ConvertBytesToTime(dataBytes(r.Start, dataOffset))
		if !ok {
			continue
		}
		end, ok := conv.ConvertBytesToTime(dataBytes(r.End, dataOffset))
		if !ok {
			slog.Debug("buffered: range not convertible yet", "start", r.Start, "end", r.End)
			continue
		}
		out = append(out, TimeRange{Start: start, End: end})
	}
	return out
}

// dataBytes shifts a resource offset into the engine's data stream.
func dataBytes(offset, dataOffset int64) int64 {
	if offset -= dataOffset; offset < 0 {
		return 0
	}
	return offset
}
