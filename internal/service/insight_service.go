package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/pkg/config"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
	"github.com/noah-isme/lms-insight-api/pkg/export"
)

type studentReader interface {
	ListInScope(ctx context.Context, classID string) ([]models.Student, error)
	Get(ctx context.Context, id string) (*models.Student, error)
}

type attendanceReader interface {
	ListByDates(ctx context.Context, dates []time.Time, classID string) ([]models.AttendanceRecord, error)
	StudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.AttendanceRecord, error)
}

// InsightService turns raw attendance records into weekday-window summaries
// and per-student histories. It only reads; record ownership stays with the
// attendance-entry workflow.
type InsightService struct {
	students   studentReader
	attendance attendanceReader
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        config.InsightsConfig
}

// NewInsightService constructs the insight service.
func NewInsightService(students studentReader, attendance attendanceReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg config.InsightsConfig) *InsightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxWindowDays <= 0 {
		cfg.MaxWindowDays = 366
	}
	if cfg.DefaultSummaryDays <= 0 {
		cfg.DefaultSummaryDays = 7
	}
	if cfg.DefaultHistoryDays <= 0 {
		cfg.DefaultHistoryDays = 14
	}
	if !models.IssuePolicy(cfg.IssuePolicy).Valid() {
		cfg.IssuePolicy = string(models.IssuePolicyStrict)
	}
	return &InsightService{students: students, attendance: attendance, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// SummaryRequest scopes one aggregation: a weekday window ending at EndDate
// (today when zero), optionally restricted to a class.
type SummaryRequest struct {
	EndDate time.Time
	Days    int
	ClassID string
	Policy  models.IssuePolicy
}

// DefaultSummaryDays exposes the configured window default for callers that
// build requests from tool arguments.
func (s *InsightService) DefaultSummaryDays() int {
	return s.cfg.DefaultSummaryDays
}

// DefaultHistoryDays exposes the configured calendar-lookback default.
func (s *InsightService) DefaultHistoryDays() int {
	return s.cfg.DefaultHistoryDays
}

// Summary aggregates attendance over the requested weekday window. The
// boolean reports whether the payload came from cache.
func (s *InsightService) Summary(ctx context.Context, req SummaryRequest) (*models.AttendanceSummary, bool, error) {
	if req.Days == 0 {
		req.Days = s.cfg.DefaultSummaryDays
	}
	if req.Days < 1 || req.Days > s.cfg.MaxWindowDays {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("days must be between 1 and %d", s.cfg.MaxWindowDays))
	}
	if req.Policy == "" {
		req.Policy = models.IssuePolicy(s.cfg.IssuePolicy)
	}
	if !req.Policy.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "policy must be one of: strict, rate")
	}
	if req.EndDate.IsZero() {
		req.EndDate = time.Now().UTC()
	}

	window := Weekdays(req.EndDate, req.Days)
	cacheKey := summaryCacheKey(window[len(window)-1], req.Days, req.ClassID, req.Policy)
	var cached models.AttendanceSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	students, err := s.students.ListInScope(ctx, req.ClassID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load students")
	}

	start := time.Now()
	records, err := s.attendance.ListByDates(ctx, window, req.ClassID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load attendance records")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("attendance_window", time.Since(start))
	}

	summary := aggregate(window, students, records, req.Policy)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache summary", zap.Error(err))
		}
	}
	return summary, false, nil
}

// StudentHistory returns a student's recorded attendance over the most
// recent days calendar days, newest first. Missing days produce no synthetic
// entries.
func (s *InsightService) StudentHistory(ctx context.Context, studentID string, days int) (*models.StudentAttendanceDetail, error) {
	if days == 0 {
		days = s.cfg.DefaultHistoryDays
	}
	if days < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "days must be a positive integer")
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id required")
	}

	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load student")
	}

	end := time.Now().UTC()
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	from := end.AddDate(0, 0, -days)

	records, err := s.attendance.StudentRange(ctx, studentID, from, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load attendance history")
	}

	detail := &models.StudentAttendanceDetail{
		Student: models.StudentRef{Name: student.Name, Code: student.StudentCode},
		Period:  fmt.Sprintf("Last %d days", days),
		Records: make([]models.AttendanceHistoryEntry, 0, len(records)),
	}
	stats := models.AttendanceStatistics{TotalDays: len(records)}
	for _, record := range records {
		detail.Records = append(detail.Records, models.AttendanceHistoryEntry{
			Date:   record.Date.Format("2006-01-02"),
			Status: record.Status,
		})
		switch record.Status {
		case models.AttendanceStatusPresent:
			stats.Present++
		case models.AttendanceStatusAbsent:
			stats.Absent++
		case models.AttendanceStatusTardy:
			stats.Tardy++
		case models.AttendanceStatusExcused:
			stats.Excused++
		}
	}
	if stats.TotalDays > 0 {
		stats.AttendanceRate = round1(float64(stats.Present) / float64(stats.TotalDays) * 100)
	}
	detail.Statistics = stats
	return detail, nil
}

// SummaryTable flattens the per-day stats for CSV/PDF export.
func SummaryTable(summary *models.AttendanceSummary) export.Table {
	table := export.Table{
		Title:   fmt.Sprintf("Attendance Summary (%s)", summary.Period),
		Headers: []string{"Date", "Present", "Absent", "Tardy", "Excused", "Missing", "Total Students"},
	}
	for _, day := range summary.DailyStats {
		table.Rows = append(table.Rows, []string{
			day.Date,
			strconv.Itoa(day.Present),
			strconv.Itoa(day.Absent),
			strconv.Itoa(day.Tardy),
			strconv.Itoa(day.Excused),
			strconv.Itoa(day.Missing),
			strconv.Itoa(day.TotalStudents),
		})
	}
	return table
}

type studentTally struct {
	present int
	absent  int
	tardy   int
	excused int
	missing int
}

// aggregate builds the summary for one window. Students carry the scope
// ordering (name, then id), which makes issue ordering deterministic.
func aggregate(window []time.Time, students []models.Student, records []models.AttendanceRecord, policy models.IssuePolicy) *models.AttendanceSummary {
	grid := make(map[string]map[string]models.AttendanceStatus, len(students))
	for _, record := range records {
		day := record.Date.Format("2006-01-02")
		byDay, ok := grid[record.StudentID]
		if !ok {
			byDay = make(map[string]models.AttendanceStatus, len(window))
			grid[record.StudentID] = byDay
		}
		byDay[day] = record.Status
	}

	totalDays := len(window)
	summary := &models.AttendanceSummary{
		Period:        fmt.Sprintf("Last %d weekdays", totalDays),
		StartDate:     window[0].Format("2006-01-02"),
		EndDate:       window[len(window)-1].Format("2006-01-02"),
		Policy:        policy,
		DailyStats:    make([]models.DailyStat, 0, totalDays),
		StudentIssues: make([]models.StudentIssue, 0),
	}

	tallies := make(map[string]*studentTally, len(students))
	for _, student := range students {
		tallies[student.ID] = &studentTally{}
	}

	for _, date := range window {
		day := date.Format("2006-01-02")
		stat := models.DailyStat{Date: day, TotalStudents: len(students)}
		for _, student := range students {
			tally := tallies[student.ID]
			status, ok := grid[student.ID][day]
			if !ok {
				stat.Missing++
				tally.missing++
				continue
			}
			switch status {
			case models.AttendanceStatusPresent:
				stat.Present++
				tally.present++
			case models.AttendanceStatusAbsent:
				stat.Absent++
				tally.absent++
			case models.AttendanceStatusTardy:
				stat.Tardy++
				tally.tardy++
			case models.AttendanceStatusExcused:
				stat.Excused++
				tally.excused++
			}
		}
		summary.DailyStats = append(summary.DailyStats, stat)
	}

	for _, student := range students {
		tally := tallies[student.ID]
		if issue, flagged := classify(student, tally, totalDays, policy); flagged {
			summary.StudentIssues = append(summary.StudentIssues, issue)
		}
	}
	return summary
}

// classify applies the named policy. The two rule sets also fix how a missing
// record folds into rates: strict counts it as an absent day, rate counts it
// as a present day.
func classify(student models.Student, tally *studentTally, totalDays int, policy models.IssuePolicy) (models.StudentIssue, bool) {
	if totalDays == 0 {
		return models.StudentIssue{}, false
	}
	days := float64(totalDays)

	switch policy {
	case models.IssuePolicyRate:
		absenceRate := float64(tally.absent) / days
		tardyRate := float64(tally.tardy) / days
		if absenceRate < 0.3 && tardyRate < 0.4 {
			return models.StudentIssue{}, false
		}
		return models.StudentIssue{
			Name:           student.Name,
			Absences:       tally.absent,
			Tardies:        tally.tardy,
			AbsenceRate:    round1(absenceRate * 100),
			TardyRate:      round1(tardyRate * 100),
			AttendanceRate: round1(float64(tally.present+tally.missing) / days * 100),
		}, true
	default: // strict
		absent := tally.absent + tally.missing
		rate := float64(tally.present) / days * 100
		if rate >= 80 && absent < 2 && tally.tardy < 3 {
			return models.StudentIssue{}, false
		}
		return models.StudentIssue{
			Name:           student.Name,
			Absences:       absent,
			Tardies:        tally.tardy,
			AbsenceRate:    round1(float64(absent) / days * 100),
			TardyRate:      round1(float64(tally.tardy) / days * 100),
			AttendanceRate: round1(rate),
		}, true
	}
}

func summaryCacheKey(endDate time.Time, days int, classID string, policy models.IssuePolicy) string {
	parts := []string{"insights", "summary", endDate.Format("2006-01-02"), strconv.Itoa(days), string(policy)}
	if classID != "" {
		parts = append(parts, classID)
	}
	return strings.Join(parts, ":")
}

// round1 rounds to one decimal, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
