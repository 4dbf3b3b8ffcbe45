package chunkuploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	progressbar "github.com/cheggaaa/pb/v3"
	"github.com/docker/go-units"
)

// Uploader sends sources chunk by chunk with bounded retries.
type Uploader struct {
	config Config
	sender ChunkSender
	logger log.Logger
	stats  *Stats
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a new Uploader sending chunks through sender.
func New(config Config, sender ChunkSender, logger log.Logger) *Uploader {
	return &Uploader{
		config: config.withDefaults(),
		sender: sender,
		logger: logger,
		stats:  NewStats(),
		sleep:  sleepContext,
	}
}

// Stats returns the upload statistics.
func (u *Uploader) Stats() *Stats {
	return u.stats
}

// Upload sends src to dest. name is the original file name reported to the service.
// The returned session reflects how far the transfer got, also when it failed.
func (u *Uploader) Upload(ctx context.Context, dest, name, contentType string, src Source) (*Session, error) {
	sizes, err := Plan(src.Size(), u.config.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	session := &Session{
		Total:     src.Size(),
		ChunkSize: u.config.ChunkSize,
		Chunks:    len(sizes),
		State:     StateIdle,
	}

	bar := u.startProgress(session.Total)
	defer func() {
		if bar != nil {
			bar.Finish()
		}
	}()

	u.logger.Debugf("Uploading %s (%s) in %d chunks to %s",
		name, units.HumanSizeWithPrecision(float64(session.Total), 3), session.Chunks, dest)

	for i, size := range sizes {
		session.Chunk = i
		session.AttemptsRemaining = u.config.MaxAttempts

		for {
			attempt := u.config.MaxAttempts - session.AttemptsRemaining + 1
			u.transition(session, StateSending, attempt)
			u.logAttempt("Uploading chunk %d/%d (attempt %d/%d) [offset=%d] [size=%s] [avg=%v]",
				i+1, session.Chunks, attempt, u.config.MaxAttempts, session.BytesSent,
				units.HumanSizeWithPrecision(float64(size), 3), u.stats.Average().Round(time.Millisecond))

			var body io.Reader = chunkReader(src, session.BytesSent, size)
			if bar != nil {
				bar.SetCurrent(session.BytesSent)
				body = bar.NewProxyReader(body)
			}

			start := time.Now()
			sendErr := u.sender.SendChunk(ctx, ChunkRequest{
				Destination: dest,
				Name:        name,
				ContentType: contentType,
				Index:       i,
				Count:       session.Chunks,
				Offset:      session.BytesSent,
				Size:        size,
				Body:        body,
			})
			if sendErr == nil {
				u.stats.Update(time.Since(start), size)
				session.BytesSent += size
				u.transition(session, StateAdvancing, attempt)
				break
			}

			u.stats.Failed()
			session.AttemptsRemaining--
			u.logger.Warnf("Chunk %d/%d attempt %d/%d failed: %s", i+1, session.Chunks, attempt, u.config.MaxAttempts, sendErr)

			if ctx.Err() != nil {
				u.transition(session, StateFailed, attempt)
				return session, fmt.Errorf("upload %s: %w", name, ctx.Err())
			}
			if session.AttemptsRemaining <= 0 {
				u.transition(session, StateFailed, attempt)
				return session, &ChunkUploadFailedError{
					ChunkIndex: i,
					Chunks:     session.Chunks,
					Attempts:   u.config.MaxAttempts,
					Err:        sendErr,
				}
			}

			u.transition(session, StateRetrying, attempt)
			if err := u.sleep(ctx, u.config.RetryDelay); err != nil {
				u.transition(session, StateFailed, attempt)
				return session, fmt.Errorf("upload %s: %w", name, err)
			}
		}
	}

	u.transition(session, StateComplete, 0)
	u.logger.Debugf("Uploaded %s in %d chunks (%s/s, %d failed attempts)", name, session.Chunks,
		units.HumanSizeWithPrecision(u.stats.BytesPerSecond(), 3), u.stats.FailedAttempts())

	return session, nil
}

func (u *Uploader) transition(session *Session, state State, attempt int) {
	session.State = state
	if u.config.OnEvent != nil {
		u.config.OnEvent(Event{
			State:     state,
			Chunk:     session.Chunk,
			Attempt:   attempt,
			BytesSent: session.BytesSent,
		})
	}
}

func (u *Uploader) logAttempt(format string, v ...interface{}) {
	if u.config.Verbose {
		u.logger.Infof(format, v...)
		return
	}
	u.logger.Debugf(format, v...)
}

func (u *Uploader) startProgress(total int64) *progressbar.ProgressBar {
	if !u.config.Progress {
		return nil
	}

	var w io.Writer = os.Stderr
	if u.config.ProgressOutput != nil {
		w = u.config.ProgressOutput
	}
	return progressbar.New64(total).SetWriter(w).Set(progressbar.Bytes, true).Start()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
