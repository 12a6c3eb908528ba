package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/config"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
	"github.com/swiftcare-health/swiftcare-api/internal/service"
	"github.com/swiftcare-health/swiftcare-api/pkg/metrics"
)

// ReminderJob periodically emails patients about pending appointments that
// start within the configured horizon. Each appointment is reminded once;
// MarkReminded keeps reruns from repeating a send.
type ReminderJob struct {
	apptRepo  appointment.Repository
	notifier  *service.NotificationService
	metrics   *metrics.Collector
	log       *zap.Logger
	interval  time.Duration
	horizon   time.Duration
	scheduler *gocron.Scheduler
}

func NewReminderJob(
	apptRepo appointment.Repository,
	notifier *service.NotificationService,
	collector *metrics.Collector,
	cfg config.ReminderConfig,
	log *zap.Logger,
) *ReminderJob {
	return &ReminderJob{
		apptRepo: apptRepo,
		notifier: notifier,
		metrics:  collector,
		log:      log,
		interval: cfg.Interval,
		horizon:  cfg.Horizon,
	}
}

// Start schedules the job and returns immediately.
func (j *ReminderJob) Start() {
	j.scheduler = gocron.NewScheduler(time.UTC)
	j.scheduler.Every(j.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := j.Run(ctx); err != nil {
			j.log.Error("reminder run failed", zap.Error(err))
		}
	})
	j.scheduler.StartAsync()
	j.log.Info("reminder job started",
		zap.Duration("interval", j.interval),
		zap.Duration("horizon", j.horizon),
	)
}

func (j *ReminderJob) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

// Run sends reminders for one pass over the upcoming window.
func (j *ReminderJob) Run(ctx context.Context) error {
	upcoming, err := j.apptRepo.GetUpcoming(ctx, time.Now().UTC(), j.horizon)
	if err != nil {
		return err
	}

	for _, a := range upcoming {
		// Mark first; a missed email is better than a duplicate one on restart.
		if err := j.apptRepo.MarkReminded(ctx, a.ID); err != nil {
			j.log.Error("failed to mark appointment reminded",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err),
			)
			continue
		}
		j.notifier.Reminder(a)
		j.metrics.RemindersSentTotal.Inc()
	}

	if len(upcoming) > 0 {
		j.log.Info("reminders sent", zap.Int("count", len(upcoming)))
	}
	return nil
}
