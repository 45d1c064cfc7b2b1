package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/ai"
	"github.com/noah-isme/lms-insight-api/internal/models"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

type scriptedProvider struct {
	completions []*ai.Completion
	errs        []error
	calls       int
	seenTools   [][]ai.ToolDefinition
	seenMsgs    [][]ai.Message
}

func (p *scriptedProvider) Complete(_ context.Context, messages []ai.Message, tools []ai.ToolDefinition) (*ai.Completion, error) {
	idx := p.calls
	p.calls++
	p.seenTools = append(p.seenTools, tools)
	p.seenMsgs = append(p.seenMsgs, messages)
	if idx < len(p.errs) && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	if idx < len(p.completions) {
		return p.completions[idx], nil
	}
	return &ai.Completion{Text: "done"}, nil
}

type fakeInsights struct {
	summary     *models.AttendanceSummary
	detail      *models.StudentAttendanceDetail
	summaryErr  error
	detailErr   error
	lastDays    int
	lastStudent string
	lastHistory int
}

func (f *fakeInsights) Summary(_ context.Context, req SummaryRequest) (*models.AttendanceSummary, bool, error) {
	f.lastDays = req.Days
	if f.summaryErr != nil {
		return nil, false, f.summaryErr
	}
	return f.summary, false, nil
}

func (f *fakeInsights) StudentHistory(_ context.Context, studentID string, days int) (*models.StudentAttendanceDetail, error) {
	f.lastStudent = studentID
	f.lastHistory = days
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.detail, nil
}

type fakeFinder struct {
	student *models.Student
	err     error
}

func (f *fakeFinder) FindByNameFragment(context.Context, string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.student, nil
}

type fakeRecorder struct {
	records []models.ChatHistory
}

func (f *fakeRecorder) Record(record models.ChatHistory) {
	f.records = append(f.records, record)
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{
		Name: "Jane Doe",
		Role: models.RoleTeacher,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}
}

func newChatService(provider ai.Provider, insights *fakeInsights, finder *fakeFinder, recorder *fakeRecorder) *ChatService {
	return NewChatService(provider, insights, finder, recorder, nil, zap.NewNop())
}

func TestConverseWithoutTool(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{{Text: "All clear."}}}
	recorder := &fakeRecorder{}
	svc := newChatService(provider, &fakeInsights{}, &fakeFinder{}, recorder)

	text, err := svc.Converse(context.Background(), staffClaims(), "How is attendance?", "")
	require.NoError(t, err)
	assert.Equal(t, "All clear.", text)

	assert.Equal(t, 1, provider.calls)
	require.Len(t, provider.seenTools[0], 2)
	require.Len(t, provider.seenMsgs[0], 2)
	assert.Equal(t, ai.RoleSystem, provider.seenMsgs[0][0].Role)
	assert.Contains(t, provider.seenMsgs[0][0].Content, "Jane Doe")
	assert.Contains(t, provider.seenMsgs[0][0].Content, "teacher")

	require.Len(t, recorder.records, 1)
	assert.Equal(t, "u1", recorder.records[0].UserID)
	assert.Equal(t, "All clear.", recorder.records[0].Response)
	assert.Nil(t, recorder.records[0].SessionID)
}

func TestConverseRecordsSessionID(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{{Text: "All clear."}}}
	recorder := &fakeRecorder{}
	svc := newChatService(provider, &fakeInsights{}, &fakeFinder{}, recorder)

	_, err := svc.Converse(context.Background(), staffClaims(), "How is attendance?", "sess-42")
	require.NoError(t, err)

	require.Len(t, recorder.records, 1)
	require.NotNil(t, recorder.records[0].SessionID)
	assert.Equal(t, "sess-42", *recorder.records[0].SessionID)
}

func TestConverseSummaryToolRound(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{
		{ToolCalls: []ai.ToolCall{{ID: "call-1", Name: "get_attendance_summary", Arguments: `{"days": 5}`}}},
		{Text: "Two students need attention."},
	}}
	insights := &fakeInsights{summary: &models.AttendanceSummary{Period: "Last 5 weekdays"}}
	svc := newChatService(provider, insights, &fakeFinder{}, &fakeRecorder{})

	text, err := svc.Converse(context.Background(), staffClaims(), "Who has attendance problems?", "")
	require.NoError(t, err)
	assert.Equal(t, "Two students need attention.", text)

	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, 5, insights.lastDays)
	assert.Nil(t, provider.seenTools[1])

	finalMsgs := provider.seenMsgs[1]
	require.Len(t, finalMsgs, 4)
	assert.Equal(t, ai.RoleAssistant, finalMsgs[2].Role)
	require.NotNil(t, finalMsgs[2].ToolCall)
	assert.Equal(t, "call-1", finalMsgs[2].ToolCall.ID)
	assert.Equal(t, ai.RoleTool, finalMsgs[3].Role)
	assert.Equal(t, "call-1", finalMsgs[3].ToolCallID)
	assert.Contains(t, finalMsgs[3].Content, "Last 5 weekdays")
}

func TestConverseStudentToolRound(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{
		{ToolCalls: []ai.ToolCall{{ID: "call-1", Name: "get_student_attendance", Arguments: `{"student_name": "alice"}`}}},
		{Text: "Alice has perfect attendance."},
	}}
	insights := &fakeInsights{detail: &models.StudentAttendanceDetail{
		Student: models.StudentRef{Name: "Alice Johnson", Code: "STU-001"},
	}}
	finder := &fakeFinder{student: &models.Student{ID: "s1", Name: "Alice Johnson"}}
	svc := newChatService(provider, insights, finder, &fakeRecorder{})

	text, err := svc.Converse(context.Background(), staffClaims(), "How is Alice doing?", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice has perfect attendance.", text)

	assert.Equal(t, "s1", insights.lastStudent)
	assert.Equal(t, 14, insights.lastHistory)
}

func TestConverseStudentNotFoundContinues(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{
		{ToolCalls: []ai.ToolCall{{ID: "call-1", Name: "get_student_attendance", Arguments: `{"student_name": "zelda"}`}}},
		{Text: "I could not find that student."},
	}}
	finder := &fakeFinder{err: appErrors.Clone(appErrors.ErrNotFound, "Student 'zelda' not found")}
	svc := newChatService(provider, &fakeInsights{}, finder, &fakeRecorder{})

	text, err := svc.Converse(context.Background(), staffClaims(), "How is Zelda doing?", "")
	require.NoError(t, err)
	assert.Equal(t, "I could not find that student.", text)

	require.Equal(t, 2, provider.calls)
	toolMsg := provider.seenMsgs[1][3]
	assert.Equal(t, ai.RoleTool, toolMsg.Role)
	assert.JSONEq(t, `{"error": "Student 'zelda' not found"}`, toolMsg.Content)
}

func TestConverseMissingStudentNameContinues(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{
		{ToolCalls: []ai.ToolCall{{ID: "call-1", Name: "get_student_attendance", Arguments: `{}`}}},
		{Text: "Which student do you mean?"},
	}}
	svc := newChatService(provider, &fakeInsights{}, &fakeFinder{}, &fakeRecorder{})

	text, err := svc.Converse(context.Background(), staffClaims(), "Show attendance for him", "")
	require.NoError(t, err)
	assert.Equal(t, "Which student do you mean?", text)

	toolMsg := provider.seenMsgs[1][3]
	assert.JSONEq(t, `{"error": "student_name is required"}`, toolMsg.Content)
}

func TestConverseEmptyMessage(t *testing.T) {
	svc := newChatService(&scriptedProvider{}, &fakeInsights{}, &fakeFinder{}, &fakeRecorder{})

	_, err := svc.Converse(context.Background(), staffClaims(), "   ", "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestConverseProviderFailure(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("timeout")}}
	svc := newChatService(provider, &fakeInsights{}, &fakeFinder{}, &fakeRecorder{})

	_, err := svc.Converse(context.Background(), staffClaims(), "hello", "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
}

func TestConverseMultipleToolCallsRejected(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{
		{ToolCalls: []ai.ToolCall{
			{ID: "call-1", Name: "get_attendance_summary", Arguments: `{}`},
			{ID: "call-2", Name: "get_student_attendance", Arguments: `{"student_name": "alice"}`},
		}},
	}}
	svc := newChatService(provider, &fakeInsights{}, &fakeFinder{}, &fakeRecorder{})

	_, err := svc.Converse(context.Background(), staffClaims(), "hello", "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrProtocol.Code, appErr.Code)
	assert.Equal(t, 1, provider.calls)
}

func TestConverseUnknownToolRejected(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{
		{ToolCalls: []ai.ToolCall{{ID: "call-1", Name: "drop_tables", Arguments: `{}`}}},
	}}
	svc := newChatService(provider, &fakeInsights{}, &fakeFinder{}, &fakeRecorder{})

	_, err := svc.Converse(context.Background(), staffClaims(), "hello", "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrProtocol.Code, appErr.Code)
}

func TestConverseMalformedArgumentsRejected(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{
		{ToolCalls: []ai.ToolCall{{ID: "call-1", Name: "get_attendance_summary", Arguments: `{"days": `}}},
	}}
	svc := newChatService(provider, &fakeInsights{}, &fakeFinder{}, &fakeRecorder{})

	_, err := svc.Converse(context.Background(), staffClaims(), "hello", "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrProtocol.Code, appErr.Code)
}

func TestConverseSecondToolRoundRejected(t *testing.T) {
	provider := &scriptedProvider{completions: []*ai.Completion{
		{ToolCalls: []ai.ToolCall{{ID: "call-1", Name: "get_attendance_summary", Arguments: `{}`}}},
		{ToolCalls: []ai.ToolCall{{ID: "call-2", Name: "get_attendance_summary", Arguments: `{}`}}},
	}}
	insights := &fakeInsights{summary: &models.AttendanceSummary{}}
	svc := newChatService(provider, insights, &fakeFinder{}, &fakeRecorder{})

	_, err := svc.Converse(context.Background(), staffClaims(), "hello", "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrProtocol.Code, appErr.Code)
	assert.Equal(t, 2, provider.calls)
}
