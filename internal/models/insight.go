package models

// IssuePolicy names the classification rule set applied when flagging
// students. The two policies reproduce the two code paths that historically
// produced this data, including how each one folds missing records into
// rates: the rate policy counts a missing day as present, the strict policy
// counts it as absent.
type IssuePolicy string

const (
	// IssuePolicyStrict flags attendance rate < 80%, or >= 2 absences, or
	// >= 3 tardies. Missing records count as absent.
	IssuePolicyStrict IssuePolicy = "strict"
	// IssuePolicyRate flags absence rate >= 30% or tardy rate >= 40% of the
	// window. Missing records count as present.
	IssuePolicyRate IssuePolicy = "rate"
)

// Valid reports whether the policy is one of the named rule sets.
func (p IssuePolicy) Valid() bool {
	return p == IssuePolicyStrict || p == IssuePolicyRate
}

// DailyStat tallies one window day by status. Students with no record for
// the day land in the missing bucket; rate computation folds that bucket in
// per the selected policy.
type DailyStat struct {
	Date          string `json:"date"`
	Present       int    `json:"present"`
	Absent        int    `json:"absent"`
	Tardy         int    `json:"tardy"`
	Excused       int    `json:"excused"`
	Missing       int    `json:"missing"`
	TotalStudents int    `json:"total_students"`
}

// StudentIssue describes a flagged student.
type StudentIssue struct {
	Name           string  `json:"name"`
	Absences       int     `json:"absences"`
	Tardies        int     `json:"tardies"`
	AbsenceRate    float64 `json:"absence_rate"`
	TardyRate      float64 `json:"tardy_rate"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// AttendanceSummary is the aggregate payload for a weekday window. Field
// names are a compatibility contract with existing API consumers.
type AttendanceSummary struct {
	Period        string         `json:"period"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date"`
	Policy        IssuePolicy    `json:"policy"`
	DailyStats    []DailyStat    `json:"daily_stats"`
	StudentIssues []StudentIssue `json:"student_issues"`
}

// StudentRef is the identity block embedded in per-student payloads.
type StudentRef struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// AttendanceHistoryEntry is one recorded day in a student's history,
// ordered most recent first.
type AttendanceHistoryEntry struct {
	Date   string           `json:"date"`
	Status AttendanceStatus `json:"status"`
}

// AttendanceStatistics counts a student's recorded days by status.
type AttendanceStatistics struct {
	TotalDays      int     `json:"total_days"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Tardy          int     `json:"tardy"`
	Excused        int     `json:"excused"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// StudentAttendanceDetail is the per-student payload: existing records over
// a calendar lookback, no synthetic entries for missing days.
type StudentAttendanceDetail struct {
	Student    StudentRef               `json:"student"`
	Period     string                   `json:"period"`
	Records    []AttendanceHistoryEntry `json:"records"`
	Statistics AttendanceStatistics     `json:"statistics"`
}
