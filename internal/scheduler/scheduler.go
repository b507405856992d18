package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docbrief/internal/metrics"

	"github.com/robfig/cron/v3"
)

const (
	HousekeepingSpec      = "*/15 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	housekeepingTimeout   = 5 * time.Minute

	kindSessions = "sessions"
	kindSpeech   = "speech"
)

type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type SpeechPurger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// Scheduler periodically removes expired sessions and stale speech files.
type Scheduler struct {
	ctx             context.Context
	cron            *cron.Cron
	sessions        SessionPurger
	speech          SpeechPurger
	speechRetention time.Duration
	log             *slog.Logger
}

func New(
	ctx context.Context,
	sessions SessionPurger,
	speech SpeechPurger,
	speechRetention time.Duration,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:             ctx,
		cron:            c,
		sessions:        sessions,
		speech:          speech,
		speechRetention: speechRetention,
		log:             log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(HousekeepingSpec, s.housekeep); err != nil {
		return fmt.Errorf("add housekeeping job: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop stops the cron and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) housekeep() {
	ctx, cancel := context.WithTimeout(s.ctx, housekeepingTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	if s.sessions != nil {
		removed, err := s.sessions.PurgeExpired(ctx)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to purge expired sessions",
				"error", err)
		} else {
			metrics.RecordHousekeeping(kindSessions, removed)
			s.log.DebugContext(ctx, "Expired sessions are purged",
				"removed", removed)
		}
	}

	if s.speech != nil && s.speechRetention > 0 {
		removed, err := s.speech.PurgeOlderThan(ctx, s.speechRetention)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to purge speech files",
				"error", err,
				"retention", s.speechRetention)
		} else {
			metrics.RecordHousekeeping(kindSpeech, removed)
			s.log.DebugContext(ctx, "Speech files are purged",
				"removed", removed,
				"retention", s.speechRetention)
		}
	}
}
