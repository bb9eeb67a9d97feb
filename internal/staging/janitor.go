package staging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically sweeps the staging directory for crash orphans: files
// older than MaxAge that no live transfer can still own.
type Janitor struct {
	dir    *Dir
	maxAge time.Duration
	cron   *cron.Cron
	logger *slog.Logger
}

// NewJanitor builds a janitor sweeping dir every interval, removing files
// older than maxAge.
func NewJanitor(log *slog.Logger, dir *Dir, interval, maxAge time.Duration) (*Janitor, error) {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		return nil, fmt.Errorf("janitor interval must be positive, got %s", interval)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("janitor max age must be positive, got %s", maxAge)
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	j := &Janitor{
		dir:    dir,
		maxAge: maxAge,
		cron:   c,
		logger: log.With(slog.String("service", "janitor")),
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), j.sweep); err != nil {
		return nil, fmt.Errorf("schedule janitor: %w", err)
	}
	return j, nil
}

// Start begins the sweep schedule.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) sweep() {
	removed, err := j.dir.SweepOlderThan(j.maxAge)
	if err != nil {
		j.logger.Warn("sweep failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		j.logger.Info("swept orphaned staging files", slog.Int("removed", removed))
	}
}
