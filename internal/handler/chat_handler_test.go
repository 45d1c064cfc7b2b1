package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/middleware"
	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/internal/service"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

type fakeChatSrv struct {
	text        string
	err         error
	lastMessage string
	lastSession string
	lastClaims  *models.JWTClaims
}

func (f *fakeChatSrv) Converse(_ context.Context, claims *models.JWTClaims, message, sessionID string) (string, error) {
	f.lastClaims = claims
	f.lastMessage = message
	f.lastSession = sessionID
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeHistorySrv struct {
	rows      []models.ChatHistory
	listErr   error
	deleteErr error
	lastID    string
}

func (f *fakeHistorySrv) ListFor(context.Context, *models.JWTClaims, string) ([]models.ChatHistory, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.rows, nil
}

func (f *fakeHistorySrv) Delete(_ context.Context, _ *models.JWTClaims, id string) error {
	f.lastID = id
	return f.deleteErr
}

func chatContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		Name: "Jane Doe",
		Role: models.RoleTeacher,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	})
	return c, rec
}

func TestChatHandlerConverseSuccess(t *testing.T) {
	chat := &fakeChatSrv{text: "Attendance looks healthy."}
	h := NewChatHandler(chat, &fakeHistorySrv{}, zap.NewNop())

	c, rec := chatContext(t, `{"message": "How is attendance?", "session_id": "sess-42"}`)
	h.Converse(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Attendance looks healthy.", body["response"])
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "How is attendance?", chat.lastMessage)
	assert.Equal(t, "sess-42", chat.lastSession)
	require.NotNil(t, chat.lastClaims)
	assert.Equal(t, "u1", chat.lastClaims.Subject)
}

func TestChatHandlerConverseEmptyMessage(t *testing.T) {
	chat := &fakeChatSrv{err: appErrors.Clone(appErrors.ErrValidation, "Message is required")}
	h := NewChatHandler(chat, &fakeHistorySrv{}, zap.NewNop())

	c, rec := chatContext(t, `{"message": ""}`)
	h.Converse(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Message is required", body["error"])
}

func TestChatHandlerConverseMalformedBody(t *testing.T) {
	h := NewChatHandler(&fakeChatSrv{}, &fakeHistorySrv{}, zap.NewNop())

	c, rec := chatContext(t, `{"message": `)
	h.Converse(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandlerConverseFailureReturnsApology(t *testing.T) {
	chat := &fakeChatSrv{err: appErrors.Clone(appErrors.ErrUpstream, "completion provider failed")}
	h := NewChatHandler(chat, &fakeHistorySrv{}, zap.NewNop())

	c, rec := chatContext(t, `{"message": "hello"}`)
	h.Converse(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, service.ApologyMessage, body["response"])
	assert.Equal(t, "error", body["status"])
}

func TestChatHandlerConverseProtocolBreachReturnsApology(t *testing.T) {
	chat := &fakeChatSrv{err: appErrors.Clone(appErrors.ErrProtocol, "provider requested multiple tools in one turn")}
	h := NewChatHandler(chat, &fakeHistorySrv{}, zap.NewNop())

	c, rec := chatContext(t, `{"message": "hello"}`)
	h.Converse(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, service.ApologyMessage, body["response"])
}

func TestChatHandlerHistory(t *testing.T) {
	history := &fakeHistorySrv{rows: []models.ChatHistory{{ID: "t1", UserID: "u1", Message: "hi"}}}
	h := NewChatHandler(&fakeChatSrv{}, history, zap.NewNop())

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/chat-history", nil)

	h.History(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "t1", envelope.Data[0]["id"])
}

func TestChatHandlerDeleteHistory(t *testing.T) {
	history := &fakeHistorySrv{}
	h := NewChatHandler(&fakeChatSrv{}, history, zap.NewNop())

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/chat-history/t1", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	h.DeleteHistory(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "t1", history.lastID)
}

func TestChatHandlerDeleteHistoryNotFound(t *testing.T) {
	history := &fakeHistorySrv{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "Chat history not found")}
	h := NewChatHandler(&fakeChatSrv{}, history, zap.NewNop())

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/chat-history/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.DeleteHistory(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
