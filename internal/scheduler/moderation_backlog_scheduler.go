package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// PendingCounter counts reviews waiting for moderation.
type PendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

// BacklogGauge receives the latest backlog size.
type BacklogGauge interface {
	SetPendingReviews(n int64)
}

const backlogTimeout = 30 * time.Second

// ModerationBacklogScheduler 승인 대기 리뷰 수 집계 스케줄러
type ModerationBacklogScheduler struct {
	cron    *cron.Cron
	spec    string
	counter PendingCounter
	gauge   BacklogGauge
}

// NewModerationBacklogScheduler 스케줄러 생성. spec은 cron 표현식 또는 "@every 5m" 형식
func NewModerationBacklogScheduler(spec string, counter PendingCounter, gauge BacklogGauge) *ModerationBacklogScheduler {
	return &ModerationBacklogScheduler{
		cron:    cron.New(),
		spec:    spec,
		counter: counter,
		gauge:   gauge,
	}
}

// Start 스케줄러 시작
func (s *ModerationBacklogScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backlogTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for moderation backlog", err, logger.Fields{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Moderation backlog scheduler started", logger.Fields{
		"spec": s.spec,
	})
	return nil
}

// RunOnce 대기 리뷰 수를 한 번 집계
func (s *ModerationBacklogScheduler) RunOnce(ctx context.Context) {
	count, err := s.counter.CountPending(ctx)
	if err != nil {
		logger.From(ctx).Error("Failed to count pending reviews from scheduler", err)
		return
	}

	if s.gauge != nil {
		s.gauge.SetPendingReviews(count)
	}
	if count > 0 {
		logger.From(ctx).Info("Reviews waiting for moderation", logger.Fields{
			"pending": count,
		})
	}
}

// Stop 스케줄러 중지. 실행 중인 작업이 끝날 때까지 기다림
func (s *ModerationBacklogScheduler) Stop() {
	logger.Info("Stopping moderation backlog scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Moderation backlog scheduler stopped", nil)
}
