// Package chunkuploader transfers a byte source to the content service as a sequence of
// signed chunk PUT requests. Chunks are sent strictly in order; a failed chunk is retried a
// bounded number of times from the same offset before the whole transfer fails.
package chunkuploader

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrEmptySource is returned for a zero-byte source, before any network activity.
	ErrEmptySource = errors.New("upload source is empty")
	// ErrUnseekableSource is returned for a source that cannot re-read a byte range.
	ErrUnseekableSource = errors.New("upload source does not support positional reads")
	// ErrStalled is returned for an attempt aborted by the low speed check.
	ErrStalled = errors.New("chunk upload stalled")
)

// State of an upload session.
type State int

// Session states.
const (
	StateIdle State = iota
	StateSending
	StateAdvancing
	StateRetrying
	StateFailed
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateAdvancing:
		return "advancing"
	case StateRetrying:
		return "retrying"
	case StateFailed:
		return "failed"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Session is the state of one file transfer.
type Session struct {
	Total     int64
	ChunkSize int64
	// BytesSent is the sum of the sizes of the acknowledged chunks.
	BytesSent int64
	// Chunk is the index of the chunk in flight, or of the last one when complete.
	Chunk             int
	Chunks            int
	AttemptsRemaining int
	State             State
}

// Event reports a state change of a session.
type Event struct {
	State State
	Chunk int
	// Attempt is the 1-based attempt number of the chunk.
	Attempt   int
	BytesSent int64
}

// ChunkRequest is one attempt to send one chunk.
type ChunkRequest struct {
	// Destination is the service path the chunks are sent to, relative to the base URL.
	Destination string
	// Name is the original file name, used by the service to group the chunks.
	Name        string
	ContentType string
	Index       int
	Count       int
	Offset      int64
	Size        int64
	// Body yields exactly Size bytes.
	Body io.Reader
}

// ChunkSender sends a single chunk. A nil error means the service acknowledged the chunk.
type ChunkSender interface {
	SendChunk(ctx context.Context, req ChunkRequest) error
}

// ChunkError is a chunk the service did not acknowledge.
type ChunkError struct {
	StatusCode int
	// AckStatus is the status field of the acknowledgment, 0 when it could not be decoded.
	AckStatus int
	Message   string
}

func (e *ChunkError) Error() string {
	if e.StatusCode != 200 {
		return fmt.Sprintf("chunk rejected with HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chunk not acknowledged (status %d): %s", e.AckStatus, e.Message)
}

// ChunkUploadFailedError ends a transfer whose chunk exhausted its attempts.
type ChunkUploadFailedError struct {
	ChunkIndex int
	Chunks     int
	Attempts   int
	Err        error
}

func (e *ChunkUploadFailedError) Error() string {
	return fmt.Sprintf("chunk %d/%d failed after %d attempts: %s", e.ChunkIndex+1, e.Chunks, e.Attempts, e.Err)
}

func (e *ChunkUploadFailedError) Unwrap() error {
	return e.Err
}
