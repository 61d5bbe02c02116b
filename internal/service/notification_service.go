package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/pkg/jobs"
	"github.com/noah-isme/nurse-roster-api/pkg/notify"
)

const jobTypeLeaveDecision = "leave_decision"

// NotificationService queues leave decisions and publishes them from a worker pool.
type NotificationService struct {
	queue          *jobs.Queue
	publisher      notify.Publisher
	publishTimeout time.Duration
	metrics        *MetricsService
	logger         *zap.Logger
}

// NotificationConfig tunes the worker pool.
type NotificationConfig struct {
	Workers        int
	MaxRetries     int
	RetryDelay     time.Duration
	PublishTimeout time.Duration
}

// NewNotificationService wires a queue around publisher. Call Start before use.
func NewNotificationService(publisher notify.Publisher, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	svc := &NotificationService{
		publisher:      publisher,
		publishTimeout: cfg.PublishTimeout,
		metrics:        metrics,
		logger:         logger,
	}
	svc.queue = jobs.NewQueue("notifications", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnDrop: func(job jobs.Job, err error) {
			metrics.RecordNotification("dropped")
		},
	})
	return svc
}

// Start launches the workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and closes the publisher.
func (s *NotificationService) Stop(ctx context.Context) error {
	err := s.queue.Stop(ctx)
	if cerr := s.publisher.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// LeaveResolved queues a message to the requester. Failures are logged and never surface to the caller.
func (s *NotificationService) LeaveResolved(_ context.Context, request models.LeaveRequest, assignment models.Assignment) {
	msg := notify.Message{
		ID:         uuid.NewString(),
		Event:      "leave." + string(request.Status),
		Recipient:  request.RequestedBy,
		OccurredAt: time.Now().UTC(),
		Data: map[string]string{
			"leave_request_id":  request.ID,
			"assignment_id":     assignment.ID,
			"shift_id":          assignment.ShiftID,
			"assignment_status": string(assignment.Status),
		},
	}
	if request.ApprovedBy != nil {
		msg.Data["resolved_by"] = *request.ApprovedBy
	}
	if request.AdminNotes != nil {
		msg.Data["admin_notes"] = *request.AdminNotes
	}
	if err := s.queue.Enqueue(jobs.Job{ID: msg.ID, Type: jobTypeLeaveDecision, Payload: msg}); err != nil {
		s.metrics.RecordNotification("rejected")
		s.logger.Warn("failed to queue leave notification", zap.String("leave_request_id", request.ID), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(notify.Message)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.metrics.RecordNotification("failed")
		return err
	}
	s.metrics.RecordNotification("published")
	return nil
}
