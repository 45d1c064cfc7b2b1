package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/pkg/config"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
	"github.com/noah-isme/lms-insight-api/pkg/jobs"
)

type chatHistoryRepository interface {
	Insert(ctx context.Context, record *models.ChatHistory) error
	List(ctx context.Context, filter models.ChatHistoryFilter) ([]models.ChatHistory, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ChatHistoryService persists and serves conversation transcripts. Writes go
// through a background queue: a failed save is logged and retried but never
// fails the conversation that produced it.
type ChatHistoryService struct {
	repo   chatHistoryRepository
	queue  *jobs.Queue
	logger *zap.Logger
	cfg    config.ChatConfig
}

// NewChatHistoryService constructs the service and its write queue. Call
// Start before recording and Stop on shutdown.
func NewChatHistoryService(repo chatHistoryRepository, logger *zap.Logger, cfg config.ChatConfig) *ChatHistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OwnLimit <= 0 {
		cfg.OwnLimit = 50
	}
	if cfg.TeacherLimit <= 0 {
		cfg.TeacherLimit = 100
	}
	s := &ChatHistoryService{repo: repo, logger: logger, cfg: cfg}
	s.queue = jobs.NewQueue("chat_history", s.handleSave, jobs.QueueConfig{
		Workers: cfg.HistoryWorkers,
		Logger:  logger,
	})
	return s
}

// Start launches the transcript writer workers.
func (s *ChatHistoryService) Start(ctx context.Context) {
	if s.cfg.HistoryEnabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the writer workers.
func (s *ChatHistoryService) Stop() {
	if s.cfg.HistoryEnabled {
		s.queue.Stop()
	}
}

// Record enqueues one transcript row, best-effort.
func (s *ChatHistoryService) Record(record models.ChatHistory) {
	if !s.cfg.HistoryEnabled {
		return
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if err := s.queue.Enqueue(jobs.Job{ID: record.ID, Type: "chat_history", Payload: record}); err != nil {
		s.logger.Warn("enqueue chat history", zap.Error(err))
	}
}

func (s *ChatHistoryService) handleSave(ctx context.Context, job jobs.Job) error {
	record, ok := job.Payload.(models.ChatHistory)
	if !ok {
		s.logger.Error("chat history job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Insert(ctx, &record)
}

// ListFor returns transcripts visible to the caller: staff read student
// transcripts (optionally one student's), students read their own.
func (s *ChatHistoryService) ListFor(ctx context.Context, claims *models.JWTClaims, studentID string) ([]models.ChatHistory, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.ChatHistoryFilter{}
	if claims.IsStaff() {
		if studentID != "" {
			filter.UserID = studentID
			filter.Limit = s.cfg.OwnLimit
		} else {
			filter.StudentOnly = true
			filter.Limit = s.cfg.TeacherLimit
		}
	} else {
		filter.UserID = claims.Subject
		filter.Limit = s.cfg.OwnLimit
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chat history")
	}
	return rows, nil
}

// Delete removes one transcript row; staff only.
func (s *ChatHistoryService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims == nil || !claims.IsStaff() {
		return appErrors.ErrForbidden
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete chat history")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "Chat history not found")
	}
	return nil
}
