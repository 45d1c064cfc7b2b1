package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/ai"
	"github.com/noah-isme/lms-insight-api/internal/models"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

// ApologyMessage is returned to the caller whenever the conversation cannot
// be completed, regardless of the underlying cause.
const ApologyMessage = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

const systemPromptTemplate = `You are a helpful AI assistant for a Learning Management System (LMS). You're helping %s, who is a %s in the system.

You have access to real-time attendance data through function calls. When users ask about attendance, use the available functions to get current data rather than making assumptions.

Key guidelines:
- For general attendance questions (who has issues, overall trends), use get_attendance_summary
- For specific student questions, use get_student_attendance with the student's name
- Always provide specific, data-driven insights when attendance data is available
- Be helpful and educational in your responses
- If asking about recent data, the default timeframe is the last 7 weekdays unless specified otherwise
- Focus on actionable insights and patterns in the data`

type insightProvider interface {
	Summary(ctx context.Context, req SummaryRequest) (*models.AttendanceSummary, bool, error)
	StudentHistory(ctx context.Context, studentID string, days int) (*models.StudentAttendanceDetail, error)
}

type studentFinder interface {
	FindByNameFragment(ctx context.Context, fragment string) (*models.Student, error)
}

type transcriptRecorder interface {
	Record(record models.ChatHistory)
}

// ChatService drives one attendance conversation against the completion
// provider. A conversation makes at most two provider calls: the first may
// request a single tool, whose result feeds the second. Any further tool
// request is a protocol breach and fails the conversation.
type ChatService struct {
	provider ai.Provider
	insights insightProvider
	students studentFinder
	history  transcriptRecorder
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewChatService wires the conversation dispatcher.
func NewChatService(
	provider ai.Provider,
	insights insightProvider,
	students studentFinder,
	history transcriptRecorder,
	metrics *MetricsService,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		provider: provider,
		insights: insights,
		students: students,
		history:  history,
		metrics:  metrics,
		logger:   logger,
	}
}

// Converse runs one user message through the provider and returns the final
// assistant text. The message must be non-empty; claims identify the caller
// for the system prompt and the transcript.
func (s *ChatService) Converse(ctx context.Context, claims *models.JWTClaims, message, sessionID string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "Message is required")
	}
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}

	messages := []ai.Message{
		ai.SystemMessage(fmt.Sprintf(systemPromptTemplate, claims.Name, claims.Role)),
		ai.UserMessage(message),
	}

	start := time.Now()
	first, err := s.provider.Complete(ctx, messages, ai.Definitions())
	s.metrics.ObserveProviderCall("initial", err, time.Since(start))
	if err != nil {
		s.logger.Error("completion provider failed", zap.String("round", "initial"), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "completion provider failed")
	}

	if len(first.ToolCalls) == 0 {
		s.record(claims, message, first.Text, sessionID)
		return first.Text, nil
	}
	if len(first.ToolCalls) > 1 {
		s.logger.Error("provider requested multiple tools in one turn", zap.Int("count", len(first.ToolCalls)))
		return "", appErrors.Clone(appErrors.ErrProtocol, "provider requested multiple tools in one turn")
	}

	call := first.ToolCalls[0]
	request, err := ai.ParseToolCall(call)
	if err != nil {
		s.logger.Error("rejected tool call", zap.String("tool", call.Name), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrProtocol.Code, appErrors.ErrProtocol.Status, "provider issued an invalid tool call")
	}

	result, err := s.executeTool(ctx, request)
	if err != nil {
		return "", err
	}
	s.metrics.RecordToolCall(string(request.Name))

	messages = append(messages, ai.AssistantToolCall(call), ai.ToolResult(call.ID, result))

	start = time.Now()
	final, err := s.provider.Complete(ctx, messages, nil)
	s.metrics.ObserveProviderCall("final", err, time.Since(start))
	if err != nil {
		s.logger.Error("completion provider failed", zap.String("round", "final"), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "completion provider failed")
	}
	if len(final.ToolCalls) > 0 {
		s.logger.Error("provider requested a second tool round", zap.String("tool", final.ToolCalls[0].Name))
		return "", appErrors.Clone(appErrors.ErrProtocol, "provider requested a tool after its round was spent")
	}

	s.record(claims, message, final.Text, sessionID)
	return final.Text, nil
}

// executeTool services one parsed tool request and returns the serialized
// payload fed back to the provider. User-level failures such as an unknown
// student become error payloads inside the result, not conversation errors.
func (s *ChatService) executeTool(ctx context.Context, request *ai.ToolRequest) (string, error) {
	switch request.Name {
	case ai.ToolAttendanceSummary:
		summary, _, err := s.insights.Summary(ctx, SummaryRequest{Days: request.Summary.Days})
		if err != nil {
			if isUserError(err) {
				return errorPayload(err), nil
			}
			return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "attendance summary failed")
		}
		return marshalPayload(summary)

	case ai.ToolStudentAttendance:
		if strings.TrimSpace(request.Student.StudentName) == "" {
			return errorPayload(appErrors.Clone(appErrors.ErrValidation, "student_name is required")), nil
		}
		student, err := s.students.FindByNameFragment(ctx, request.Student.StudentName)
		if err != nil {
			if isUserError(err) {
				return errorPayload(err), nil
			}
			return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "student lookup failed")
		}
		detail, err := s.insights.StudentHistory(ctx, student.ID, request.Student.Days)
		if err != nil {
			if isUserError(err) {
				return errorPayload(err), nil
			}
			return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "student attendance failed")
		}
		return marshalPayload(detail)
	}
	return "", appErrors.Clone(appErrors.ErrProtocol, fmt.Sprintf("unregistered tool %q", request.Name))
}

func (s *ChatService) record(claims *models.JWTClaims, message, response, sessionID string) {
	if s.history == nil {
		return
	}
	record := models.ChatHistory{
		UserID:   claims.Subject,
		Message:  message,
		Response: response,
	}
	if sessionID != "" {
		record.SessionID = &sessionID
	}
	s.history.Record(record)
}

// isUserError reports whether the failure should be surfaced to the model as
// a tool-result payload so the conversation can continue.
func isUserError(err error) bool {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == appErrors.ErrNotFound.Code || appErr.Code == appErrors.ErrValidation.Code
}

func errorPayload(err error) string {
	payload, marshalErr := json.Marshal(map[string]string{"error": appErrors.FromError(err).Message})
	if marshalErr != nil {
		return `{"error": "tool execution failed"}`
	}
	return string(payload)
}

func marshalPayload(v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to serialize tool result")
	}
	return string(payload), nil
}
