package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler fires the promotion sweep on a cron cadence so repeated
// attack patterns become detection seeds without operator action.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler wires a sweep job for the given cron spec. Standard
// five-field expressions and descriptors like "@every 1h" are accepted.
func NewScheduler(p *Pipeline, spec string, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		res, err := p.RunSweep(ctx)
		if err != nil {
			log.Warn("scheduled sweep failed", zap.Error(err))
			return
		}
		if res.Promoted > 0 {
			log.Info("sweep promoted patterns",
				zap.Int("promoted", res.Promoted),
				zap.Int("pending", res.Pending))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start begins firing the schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
