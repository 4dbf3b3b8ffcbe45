package chunkuploader

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Source is a byte source that can re-read any range, so a retried chunk resends the
// identical bytes.
type Source interface {
	io.ReaderAt
	Size() int64
}

// FileSource reads from a file on disk.
type FileSource struct {
	file *os.File
	size int64
}

// NewFileSource opens the file at path.
func NewFileSource(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrUnseekableSource)
	}

	return &FileSource{file: file, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

// Size returns the file size at open time.
func (s *FileSource) Size() int64 {
	return s.size
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// NewSource wraps r holding size bytes. r must implement io.ReaderAt or io.ReadSeeker,
// otherwise ErrUnseekableSource is returned.
func NewSource(r io.Reader, size int64) (Source, error) {
	switch v := r.(type) {
	case io.ReaderAt:
		return &readerAtSource{ReaderAt: v, size: size}, nil
	case io.ReadSeeker:
		return &seekerSource{rs: v, size: size}, nil
	default:
		return nil, ErrUnseekableSource
	}
}

type readerAtSource struct {
	io.ReaderAt
	size int64
}

func (s *readerAtSource) Size() int64 {
	return s.size
}

// seekerSource serves positional reads with seek-then-read under a lock.
type seekerSource struct {
	rs   io.ReadSeeker
	size int64
	mu   sync.Mutex
}

func (s *seekerSource) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to position %d: %w", off, err)
	}
	n, err := io.ReadFull(s.rs, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func (s *seekerSource) Size() int64 {
	return s.size
}

// Plan returns the size of every chunk of a size bytes source. The sizes sum to size; when
// size is a multiple of chunkSize the last chunk is a full one.
func Plan(size, chunkSize int64) ([]int64, error) {
	if size <= 0 {
		return nil, ErrEmptySource
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size: %d", chunkSize)
	}

	count := (size + chunkSize - 1) / chunkSize
	sizes := make([]int64, count)
	for i := range sizes {
		sizes[i] = chunkSize
	}
	if rem := size % chunkSize; rem != 0 {
		sizes[count-1] = rem
	}
	return sizes, nil
}

// chunkReader returns a cursor over exactly size bytes of src starting at offset. A fresh
// cursor is built for every attempt.
func chunkReader(src Source, offset, size int64) *io.SectionReader {
	return io.NewSectionReader(src, offset, size)
}
