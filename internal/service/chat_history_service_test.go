package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/pkg/config"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

type fakeChatHistoryRepo struct {
	rows       []models.ChatHistory
	lastFilter models.ChatHistoryFilter
	deleted    bool
	deleteErr  error
}

func (f *fakeChatHistoryRepo) Insert(_ context.Context, record *models.ChatHistory) error {
	f.rows = append(f.rows, *record)
	return nil
}

func (f *fakeChatHistoryRepo) List(_ context.Context, filter models.ChatHistoryFilter) ([]models.ChatHistory, error) {
	f.lastFilter = filter
	return f.rows, nil
}

func (f *fakeChatHistoryRepo) Delete(context.Context, string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.deleted, nil
}

func studentClaims(subject string) *models.JWTClaims {
	return &models.JWTClaims{
		Name: "Sam Student",
		Role: models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
}

func TestChatHistoryListStudentSeesOwnRows(t *testing.T) {
	repo := &fakeChatHistoryRepo{}
	svc := NewChatHistoryService(repo, zap.NewNop(), config.ChatConfig{OwnLimit: 25, TeacherLimit: 100})

	_, err := svc.ListFor(context.Background(), studentClaims("u9"), "")
	require.NoError(t, err)
	assert.Equal(t, "u9", repo.lastFilter.UserID)
	assert.False(t, repo.lastFilter.StudentOnly)
	assert.Equal(t, 25, repo.lastFilter.Limit)
}

func TestChatHistoryListStaffSeesStudents(t *testing.T) {
	repo := &fakeChatHistoryRepo{}
	svc := NewChatHistoryService(repo, zap.NewNop(), config.ChatConfig{OwnLimit: 25, TeacherLimit: 100})

	_, err := svc.ListFor(context.Background(), staffClaims(), "")
	require.NoError(t, err)
	assert.Empty(t, repo.lastFilter.UserID)
	assert.True(t, repo.lastFilter.StudentOnly)
	assert.Equal(t, 100, repo.lastFilter.Limit)
}

func TestChatHistoryListStaffScopedToStudent(t *testing.T) {
	repo := &fakeChatHistoryRepo{}
	svc := NewChatHistoryService(repo, zap.NewNop(), config.ChatConfig{})

	_, err := svc.ListFor(context.Background(), staffClaims(), "u7")
	require.NoError(t, err)
	assert.Equal(t, "u7", repo.lastFilter.UserID)
	assert.False(t, repo.lastFilter.StudentOnly)
}

func TestChatHistoryListUnauthenticated(t *testing.T) {
	svc := NewChatHistoryService(&fakeChatHistoryRepo{}, zap.NewNop(), config.ChatConfig{})

	_, err := svc.ListFor(context.Background(), nil, "")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestChatHistoryDeleteStaffOnly(t *testing.T) {
	svc := NewChatHistoryService(&fakeChatHistoryRepo{deleted: true}, zap.NewNop(), config.ChatConfig{})

	err := svc.Delete(context.Background(), studentClaims("u9"), "t1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	require.NoError(t, svc.Delete(context.Background(), staffClaims(), "t1"))
}

func TestChatHistoryDeleteNotFound(t *testing.T) {
	svc := NewChatHistoryService(&fakeChatHistoryRepo{deleted: false}, zap.NewNop(), config.ChatConfig{})

	err := svc.Delete(context.Background(), staffClaims(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestChatHistoryRecordDisabled(t *testing.T) {
	repo := &fakeChatHistoryRepo{}
	svc := NewChatHistoryService(repo, zap.NewNop(), config.ChatConfig{HistoryEnabled: false})

	svc.Record(models.ChatHistory{UserID: "u1", Message: "hi", Response: "hello"})
	assert.Empty(t, repo.rows)
}
