// File: internal/telemetry/follower.go
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"
)

// Follower reads a JSON-lines samples file and hands every decoded record to
// a callback. With Follow set it keeps waiting for appended lines until the
// context is cancelled; otherwise it stops at end of file.
type Follower struct {
	Path   string
	Follow bool
	// Poll watches the file by polling instead of inotify.
	Poll   bool
	logger *zap.Logger
}

// NewFollower creates a follower for path.
func NewFollower(path string, follow bool, logger *zap.Logger) *Follower {
	return &Follower{
		Path:   path,
		Follow: follow,
		logger: logger.Named("follower"),
	}
}

// Run blocks until the file is exhausted, the context ends or handle returns
// an error. Lines that do not decode are logged and skipped.
func (f *Follower) Run(ctx context.Context, handle func(Record) error) error {
	t, err := tail.TailFile(f.Path, tail.Config{
		Follow:    f.Follow,
		ReOpen:    f.Follow,
		Poll:      f.Poll,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: 0},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail samples file: %w", err)
	}
	defer func() {
		_ = t.Stop()
		// Cleanup releases the shared inotify watch, which only exists in follow mode.
		if f.Follow && !f.Poll {
			t.Cleanup()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			f.logger.Debug("Stopping samples follower.")
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				f.logger.Warn("Error reading samples file", zap.Error(line.Err))
				continue
			}
			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			rec, err := DecodeRecord([]byte(text))
			if err != nil {
				f.logger.Warn("Skipping undecodable sample line", zap.String("line", text), zap.Error(err))
				continue
			}
			if err := handle(rec); err != nil {
				return err
			}
		}
	}
}
