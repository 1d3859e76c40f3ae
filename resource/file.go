// Package resource provides byte-range providers for the media reader.
package resource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/buffered"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// File is a fully local byte-range provider over an afero filesystem. Read,
// Seek and Tell share one cursor guarded by a mutex; ReadAt leaves it alone.
type File struct {
	mu          sync.Mutex
	file        afero.File
	name        string
	size        int64
	position    int64
	contentType string
	closed      bool
}

// OpenFile opens name on fsys. An empty contentType is detected from the
// file's leading bytes.
func OpenFile(fsys afero.Fs, name, contentType string) (*File, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("resource: open %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("resource: stat %s: %w", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("resource: %s is a directory", name)
	}

	if contentType == "" {
		mtype, err := mimetype.DetectReader(io.NewSectionReader(f, 0, info.Size()))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("resource: detect content type of %s: %w", name, err)
		}
		contentType = mtype.String()
		slog.Debug("resource: content type detected", "file", name, "content_type", contentType)
	}

	return &File{
		file:        f,
		name:        name,
		size:        info.Size(),
		contentType: contentType,
	}, nil
}

// Read implements io.Reader at the shared cursor.
func (f *File) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.position >= f.size {
		return 0, io.EOF
	}

	n, err := f.file.ReadAt(p, f.position)
	f.position += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAt implements io.ReaderAt without moving the cursor.
func (f *File) ReadAt(p []byte, offset int64) (int, error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return 0, fs.ErrClosed
	}
	return f.file.ReadAt(p, offset)
}

// Seek moves the cursor to an absolute offset.
func (f *File) Seek(offset int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fs.ErrClosed
	}
	if offset < 0 {
		return fmt.Errorf("resource: negative seek position: %d", offset)
	}
	if offset > f.size {
		return fmt.Errorf("resource: seek position beyond file size: %d > %d", offset, f.size)
	}
	f.position = offset
	return nil
}

// Tell returns the cursor position.
func (f *File) Tell() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

// Length returns the file size.
func (f *File) Length() int64 {
	return f.size
}

// IsDataCachedToEnd is always true for a local file.
func (f *File) IsDataCachedToEnd(offset int64) bool {
	return offset >= 0
}

// CachedRanges reports the whole file.
func (f *File) CachedRanges() []buffered.ByteRange {
	if f.size == 0 {
		return nil
	}
	return []buffered.ByteRange{{Start: 0, End: f.size}}
}

// ContentType returns the given or detected MIME type.
func (f *File) ContentType() string {
	return f.contentType
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Close releases the file. Safe to call more than once.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}
