// Package feeder answers the engine's input requests from a byte-range
// source. Handlers run inline on an engine thread, one at a time.
package feeder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/stats"
)

//go:generate mockgen -destination=mock_feeder_test.go -package=feeder . Source,Input

// DefaultReadSize replaces the engine's "any length" requests.
const DefaultReadSize = 50 * 1024

// unknownLength is what the engine passes when it has no preferred size.
const unknownLength = math.MaxUint32

// ErrRead wraps the source error that ended the input.
var ErrRead = errors.New("feeder: source read failed")

// Source is the part of the byte-range provider the feeder uses.
type Source interface {
	Read(p []byte) (int, error)
	Seek(offset int64) error
	Tell() int64
	Length() int64
}

// Input is the engine's input adapter.
type Input interface {
	PushInput(data []byte) error
	EndInput()
	InputSize() int64
	SetInputSize(size int64)
}

// Feeder reads from a Source and pushes into an Input.
type Feeder struct {
	source     Source
	input      Input
	readSize   int
	dataOffset atomic.Int64
	counters   *stats.Counters
	log        *slog.Logger

	errMu sync.Mutex
	err   error // first read error
}

// New creates a feeder. A readSize of zero selects DefaultReadSize.
func New(source Source, input Input, readSize int, counters *stats.Counters, logger *slog.Logger) *Feeder {
	if readSize <= 0 {
		readSize = DefaultReadSize
	}
	if counters == nil {
		counters = &stats.Counters{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feeder{
		source:   source,
		input:    input,
		readSize: readSize,
		counters: counters,
		log:      logger,
	}
}

// SetDataOffset sets the number of leading bytes excluded from the media
// data (for example an ID3 tag).
func (f *Feeder) SetDataOffset(offset int64) {
	f.dataOffset.Store(offset)
}

// DataOffset returns the current data offset.
func (f *Feeder) DataOffset() int64 {
	return f.dataOffset.Load()
}

// DataLength is the source length minus the data offset, -1 if unknown.
func (f *Feeder) DataLength() int64 {
	length := f.source.Length()
	if length < 0 {
		return -1
	}
	return length - f.dataOffset.Load()
}

// NeedData reads up to length bytes and pushes them. A read error or a
// short read ends the input.
func (f *Feeder) NeedData(length uint) {
	if length == unknownLength {
		length = uint(f.readSize)
	}

	before := f.source.Tell()
	buf := make([]byte, length)

	var (
		bytesRead int
		readErr   error
	)
	for bytesRead < len(buf) {
		n, err := f.source.Read(buf[bytesRead:])
		bytesRead += n
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		if n == 0 {
			break
		}
	}

	after := f.source.Tell()

	if bytesRead > 0 {
		f.counters.BytesRead.Add(uint64(bytesRead))
		if err := f.input.PushInput(buf[:bytesRead]); err != nil {
			f.log.Error("feeder: push failed", "error", err, "bytes", bytesRead)
		}
	}

	switch {
	case readErr != nil:
		f.counters.ReadErrors.Add(1)
		f.recordErr(fmt.Errorf("%w at offset %d: %v", ErrRead, before+int64(bytesRead), readErr))
		f.log.Error("feeder: read error, ending input",
			"error", readErr,
			"offset", before,
			"bytes_read", bytesRead,
		)
		f.input.EndInput()
	case bytesRead < len(buf):
		f.counters.ShortReads.Add(1)
		f.log.Warn("feeder: short read, ending input",
			"bytes_read", bytesRead,
			"requested", len(buf),
			"offset_before", before,
			"offset_after", after,
		)
		f.input.EndInput()
	}

	// Another reader moving the cursor would desynchronize the engine.
	if before+int64(bytesRead) != after {
		f.counters.OffsetMismatches.Add(1)
		f.log.Error("feeder: source cursor moved concurrently",
			"offset_before", before,
			"offset_after", after,
			"bytes_read", bytesRead,
		)
	}
}

func (f *Feeder) recordErr(err error) {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

// Err returns the first read error that ended the input, if any.
func (f *Feeder) Err() error {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.err
}

// EnoughData is a no-op; the engine stops asking until it drains.
func (f *Feeder) EnoughData() {
	f.log.Debug("feeder: input queue full")
}

// SeekData moves the source to the engine offset shifted by the data offset.
func (f *Feeder) SeekData(offset uint64) bool {
	f.counters.InputSeeks.Add(1)

	target := int64(offset) + f.dataOffset.Load()
	length := f.source.Length()

	// The length may have become known since the input was set up.
	if f.input.InputSize() == -1 {
		f.input.SetInputSize(f.DataLength())
	}

	if length >= 0 && target >= length {
		f.counters.InputSeekFailures.Add(1)
		f.log.Error("feeder: seek past end", "offset", target, "length", length)
		return false
	}
	if err := f.source.Seek(target); err != nil {
		f.counters.InputSeekFailures.Add(1)
		f.log.Error("feeder: seek failed", "offset", target, "error", err)
		return false
	}

	f.log.Debug("feeder: seek", "offset", target)
	return true
}
