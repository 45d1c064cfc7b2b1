package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/models"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

type fakeStudentSearcher struct {
	matches      []models.Student
	err          error
	lastFragment string
}

func (f *fakeStudentSearcher) FindByNameFragment(_ context.Context, fragment string) ([]models.Student, error) {
	f.lastFragment = fragment
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func TestStudentLookupSingleMatch(t *testing.T) {
	repo := &fakeStudentSearcher{matches: []models.Student{{ID: "s1", Name: "Alice Johnson"}}}
	svc := NewStudentLookupService(repo, zap.NewNop())

	student, err := svc.FindByNameFragment(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "s1", student.ID)
	assert.Equal(t, "alice", repo.lastFragment)
}

func TestStudentLookupAmbiguousTakesFirst(t *testing.T) {
	// The repository orders by lowercased name then id; the first row wins.
	repo := &fakeStudentSearcher{matches: []models.Student{
		{ID: "s2", Name: "Ana Brown"},
		{ID: "s5", Name: "Anabel Cruz"},
	}}
	svc := NewStudentLookupService(repo, zap.NewNop())

	student, err := svc.FindByNameFragment(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, "s2", student.ID)
}

func TestStudentLookupNotFound(t *testing.T) {
	svc := NewStudentLookupService(&fakeStudentSearcher{}, zap.NewNop())

	_, err := svc.FindByNameFragment(context.Background(), "Zelda")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Student 'Zelda' not found", appErr.Message)
}

func TestStudentLookupEmptyFragment(t *testing.T) {
	svc := NewStudentLookupService(&fakeStudentSearcher{}, zap.NewNop())

	_, err := svc.FindByNameFragment(context.Background(), "   ")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentLookupRepositoryFailure(t *testing.T) {
	repo := &fakeStudentSearcher{err: errors.New("connection refused")}
	svc := NewStudentLookupService(repo, zap.NewNop())

	_, err := svc.FindByNameFragment(context.Background(), "alice")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
}
