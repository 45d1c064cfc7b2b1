package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/models"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

type studentSearcher interface {
	FindByNameFragment(ctx context.Context, fragment string) ([]models.Student, error)
}

// StudentLookupService resolves free-text name fragments to student
// identities for the tool-dispatch layer.
type StudentLookupService struct {
	repo   studentSearcher
	logger *zap.Logger
}

// NewStudentLookupService constructs the lookup service.
func NewStudentLookupService(repo studentSearcher, logger *zap.Logger) *StudentLookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentLookupService{repo: repo, logger: logger}
}

// FindByNameFragment matches the fragment case-insensitively against student
// display names. When several students match, the lexicographically smallest
// lowercased name wins, then the smallest id; the repository ordering
// guarantees that tie-break.
func (s *StudentLookupService) FindByNameFragment(ctx context.Context, fragment string) (*models.Student, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_name is required")
	}
	matches, err := s.repo.FindByNameFragment(ctx, fragment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to search students")
	}
	if len(matches) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Student '%s' not found", fragment))
	}
	if len(matches) > 1 {
		s.logger.Debug("ambiguous student lookup",
			zap.String("fragment", fragment),
			zap.Int("matches", len(matches)),
			zap.String("selected", matches[0].ID),
		)
	}
	return &matches[0], nil
}
