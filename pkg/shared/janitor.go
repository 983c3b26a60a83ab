package shared

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// janitor runs the proactive TTL sweep in the background, paced either by
// a fixed interval or by a cron expression when one is configured.
type janitor struct {
	coordinator *Coordinator
	logger      zerolog.Logger
	interval    time.Duration
	schedule    cron.Schedule

	quit chan struct{}
	done chan struct{}
}

func newJanitor(c *Coordinator, cfg Config) (*janitor, error) {
	j := &janitor{
		coordinator: c,
		logger:      cfg.Logger,
		interval:    cfg.CleanupInterval,
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	if cfg.CleanupSchedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		schedule, err := parser.Parse(cfg.CleanupSchedule)
		if err != nil {
			return nil, fmt.Errorf("invalid cleanup schedule: %w", err)
		}
		j.schedule = schedule
	}

	return j, nil
}

func (j *janitor) start() {
	go j.run()
}

func (j *janitor) run() {
	defer close(j.done)

	timer := time.NewTimer(j.nextWait())
	defer timer.Stop()

	for {
		select {
		case <-j.quit:
			return
		case <-timer.C:
			removed := j.coordinator.Cleanup()
			if removed > 0 {
				j.logger.Debug().Int("removed", removed).Msg("Cleanup sweep finished")
			}
			timer.Reset(j.nextWait())
		}
	}
}

// nextWait returns the delay until the next sweep. Cron schedules are
// re-evaluated each pass so they track wall-clock boundaries.
func (j *janitor) nextWait() time.Duration {
	if j.schedule != nil {
		now := time.Now()
		wait := j.schedule.Next(now).Sub(now)
		if wait < 0 {
			wait = 0
		}
		return wait
	}
	return j.interval
}

// stop halts the sweep loop and waits for an in-flight sweep to finish.
func (j *janitor) stop() {
	close(j.quit)
	<-j.done
}
