package ai

import (
	"encoding/json"
	"fmt"
)

// ToolName enumerates the closed set of callable tools.
type ToolName string

const (
	ToolAttendanceSummary ToolName = "get_attendance_summary"
	ToolStudentAttendance ToolName = "get_student_attendance"
)

const (
	defaultSummaryDays = 7
	defaultStudentDays = 14
)

// SummaryArgs are the arguments of get_attendance_summary.
type SummaryArgs struct {
	Days int `json:"days"`
}

// StudentArgs are the arguments of get_student_attendance.
type StudentArgs struct {
	StudentName string `json:"student_name"`
	Days        int    `json:"days"`
}

// ToolRequest is the parsed, typed form of a provider tool call: exactly one
// of the argument fields is set, matching Name.
type ToolRequest struct {
	Name    ToolName
	Summary *SummaryArgs
	Student *StudentArgs
}

type toolSpec struct {
	definition ToolDefinition
	parse      func(raw string) (*ToolRequest, error)
}

// registry is the closed lookup table over the two known tools.
var registry = map[ToolName]toolSpec{
	ToolAttendanceSummary: {
		definition: ToolDefinition{
			Name:        string(ToolAttendanceSummary),
			Description: "Get overall attendance summary and identify students with attendance issues. Use this for questions about general attendance trends, who has attendance problems, overall statistics, etc.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"days": map[string]interface{}{
						"type":        "integer",
						"description": "Number of recent weekdays to analyze (default: 7)",
						"default":     defaultSummaryDays,
					},
				},
			},
		},
		parse: func(raw string) (*ToolRequest, error) {
			args := SummaryArgs{Days: defaultSummaryDays}
			if err := unmarshalArgs(raw, &args); err != nil {
				return nil, err
			}
			if args.Days == 0 {
				args.Days = defaultSummaryDays
			}
			return &ToolRequest{Name: ToolAttendanceSummary, Summary: &args}, nil
		},
	},
	ToolStudentAttendance: {
		definition: ToolDefinition{
			Name:        string(ToolStudentAttendance),
			Description: "Get detailed attendance information for a specific student. Use this when asked about a particular student's attendance record.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"student_name": map[string]interface{}{
						"type":        "string",
						"description": "Name of the student to look up",
					},
					"days": map[string]interface{}{
						"type":        "integer",
						"description": "Number of recent days to include (default: 14)",
						"default":     defaultStudentDays,
					},
				},
				"required": []string{"student_name"},
			},
		},
		parse: func(raw string) (*ToolRequest, error) {
			args := StudentArgs{Days: defaultStudentDays}
			if err := unmarshalArgs(raw, &args); err != nil {
				return nil, err
			}
			if args.Days == 0 {
				args.Days = defaultStudentDays
			}
			return &ToolRequest{Name: ToolStudentAttendance, Student: &args}, nil
		},
	},
}

// Definitions returns the tool schemas offered to the completion provider.
func Definitions() []ToolDefinition {
	return []ToolDefinition{
		registry[ToolAttendanceSummary].definition,
		registry[ToolStudentAttendance].definition,
	}
}

// ParseToolCall resolves a provider tool call against the registry and
// decodes its arguments, applying per-tool defaults. An unknown name or
// malformed argument JSON is an error; the dispatcher treats both as a
// protocol violation.
func ParseToolCall(call ToolCall) (*ToolRequest, error) {
	spec, ok := registry[ToolName(call.Name)]
	if !ok {
		return nil, fmt.Errorf("unregistered tool %q", call.Name)
	}
	req, err := spec.parse(call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("parse %s arguments: %w", call.Name, err)
	}
	return req, nil
}

func unmarshalArgs(raw string, dest interface{}) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dest)
}
