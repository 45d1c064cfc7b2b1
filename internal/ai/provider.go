package ai

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request from the provider to invoke one named
// tool with raw JSON arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one turn in the conversation. Messages are immutable once
// appended; the dispatcher only ever grows the list.
type Message struct {
	Role    Role
	Content string
	// ToolCall is set on the assistant turn that requested a tool.
	ToolCall *ToolCall
	// ToolCallID links a tool-result turn back to the call it answers.
	ToolCallID string
}

// SystemMessage builds a system turn.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantToolCall builds the assistant turn that carries a tool request.
func AssistantToolCall(call ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCall: &call}
}

// ToolResult builds the turn carrying a serialized tool payload.
func ToolResult(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// Completion is the provider's reply: final text, or one or more tool calls.
// The dispatcher only ever services the first call and rejects the rest.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolDefinition declares one callable tool offered to the provider.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Provider is the completion service consumed by the dispatcher. It is an
// opaque request/response boundary; implementations own transport concerns
// such as per-call deadlines.
type Provider interface {
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Completion, error)
}
