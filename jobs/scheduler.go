package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler запускает свипер раз в час.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	log     *zap.Logger
}

func NewScheduler(sweeper *Sweeper, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		log:     log,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("0 * * * *", func() {
		s.log.Debug("[CRON] subscription sweep")
		s.sweeper.Run(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("планировщик запущен, свип каждый час")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущего запуска.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
