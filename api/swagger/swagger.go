package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Insight API",
        "description": "Attendance analytics and AI assistant endpoints for the LMS",
        "version": "0.1.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Insights", "description": "Attendance aggregation over the recent weekday window"},
        {"name": "Chat", "description": "Attendance assistant conversation and transcripts"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/ai/attendance-summary": {
            "get": {
                "tags": ["Insights"],
                "summary": "Aggregated attendance over the recent weekday window",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "days", "in": "query", "type": "integer", "description": "Number of recent weekdays (default: 7)"},
                    {"name": "class_id", "in": "query", "type": "string", "description": "Restrict to one class"},
                    {"name": "end_date", "in": "query", "type": "string", "description": "Window end date (YYYY-MM-DD)"},
                    {"name": "policy", "in": "query", "type": "string", "enum": ["strict", "rate"], "description": "Issue policy"}
                ],
                "responses": {
                    "200": {"description": "Summary", "schema": {"$ref": "#/definitions/AttendanceSummary"}},
                    "400": {"description": "Invalid parameters"}
                }
            }
        },
        "/ai/attendance-summary/export": {
            "get": {
                "tags": ["Insights"],
                "summary": "Download the attendance summary as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "description": "Export format (default: csv)"},
                    {"name": "days", "in": "query", "type": "integer", "description": "Number of recent weekdays (default: 7)"},
                    {"name": "class_id", "in": "query", "type": "string", "description": "Restrict to one class"},
                    {"name": "end_date", "in": "query", "type": "string", "description": "Window end date (YYYY-MM-DD)"},
                    {"name": "policy", "in": "query", "type": "string", "enum": ["strict", "rate"], "description": "Issue policy"}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Invalid parameters"}
                }
            }
        },
        "/ai/student-attendance/{id}": {
            "get": {
                "tags": ["Insights"],
                "summary": "Attendance history for one student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Student ID"},
                    {"name": "days", "in": "query", "type": "integer", "description": "Number of recent days (default: 14)"}
                ],
                "responses": {
                    "200": {"description": "Detail", "schema": {"$ref": "#/definitions/StudentAttendanceDetail"}},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/chat": {
            "post": {
                "tags": ["Chat"],
                "summary": "Send one message to the attendance assistant",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assistant reply", "schema": {"$ref": "#/definitions/ChatResponse"}},
                    "400": {"description": "Message is required"},
                    "500": {"description": "Conversation failed", "schema": {"$ref": "#/definitions/ChatResponse"}}
                }
            }
        },
        "/chat-history": {
            "get": {
                "tags": ["Chat"],
                "summary": "List conversation transcripts visible to the caller",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string", "description": "Restrict to one student (staff only)"}
                ],
                "responses": {
                    "200": {"description": "Transcripts", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/chat-history/{id}": {
            "delete": {
                "tags": ["Chat"],
                "summary": "Delete one conversation transcript",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Transcript ID"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Staff only"},
                    "404": {"description": "Transcript not found"}
                }
            }
        }
    },
    "definitions": {
        "ChatRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {
                "message": {"type": "string"},
                "session_id": {"type": "string"}
            }
        },
        "ChatResponse": {
            "type": "object",
            "properties": {
                "response": {"type": "string"},
                "status": {"type": "string", "enum": ["success", "error"]}
            }
        },
        "DailyStat": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "present": {"type": "integer"},
                "absent": {"type": "integer"},
                "tardy": {"type": "integer"},
                "excused": {"type": "integer"},
                "missing": {"type": "integer"},
                "total_students": {"type": "integer"}
            }
        },
        "StudentIssue": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "absences": {"type": "integer"},
                "tardies": {"type": "integer"},
                "absence_rate": {"type": "number"},
                "tardy_rate": {"type": "number"},
                "attendance_rate": {"type": "number"}
            }
        },
        "AttendanceSummary": {
            "type": "object",
            "properties": {
                "period": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "policy": {"type": "string"},
                "daily_stats": {"type": "array", "items": {"$ref": "#/definitions/DailyStat"}},
                "student_issues": {"type": "array", "items": {"$ref": "#/definitions/StudentIssue"}}
            }
        },
        "StudentAttendanceDetail": {
            "type": "object",
            "properties": {
                "student": {
                    "type": "object",
                    "properties": {
                        "name": {"type": "string"},
                        "code": {"type": "string"}
                    }
                },
                "period": {"type": "string"},
                "records": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "date": {"type": "string"},
                            "status": {"type": "string"}
                        }
                    }
                },
                "statistics": {
                    "type": "object",
                    "properties": {
                        "total_days": {"type": "integer"},
                        "present": {"type": "integer"},
                        "absent": {"type": "integer"},
                        "tardy": {"type": "integer"},
                        "excused": {"type": "integer"},
                        "attendance_rate": {"type": "number"}
                    }
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
