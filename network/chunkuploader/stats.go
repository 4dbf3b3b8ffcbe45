package chunkuploader

import (
	"sync"
	"time"
)

// Stats tracks the acknowledged chunks of an uploader for reporting.
type Stats struct {
	sum            time.Duration
	bytes          int64
	finishedChunks int64
	failedAttempts int64
	mu             sync.Mutex
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// Update records an acknowledged chunk of size bytes sent in d.
func (s *Stats) Update(d time.Duration, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sum += d
	s.bytes += size
	s.finishedChunks++
}

// Failed records a failed attempt.
func (s *Stats) Failed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedAttempts++
}

// Average returns the average duration of an acknowledged chunk.
func (s *Stats) Average() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finishedChunks == 0 {
		return 0
	}
	return s.sum / time.Duration(s.finishedChunks)
}

// FinishedCount returns the number of acknowledged chunks.
func (s *Stats) FinishedCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishedChunks
}

// FailedAttempts returns the number of failed attempts.
func (s *Stats) FailedAttempts() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedAttempts
}

// BytesPerSecond returns the throughput of the acknowledged chunks.
func (s *Stats) BytesPerSecond() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sum <= 0 {
		return 0
	}
	return float64(s.bytes) / s.sum.Seconds()
}
