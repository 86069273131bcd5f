package models

// Message roles as stored in durable history. The Gemini API uses "model"
// where we store "assistant"; the conversation session maps between the two
// vocabularies when seeding a provider session.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// ProviderRoleModel is the external role name used by the provider.
	ProviderRoleModel = "model"
)

// Chart is a renderable side artifact produced by a tool during one turn.
// It is never persisted: the session store strips it before writing.
type Chart struct {
	Ticker  string `json:"ticker"`
	Caption string `json:"caption"`
	PNG     []byte `json:"png,omitempty"`
}

// Message is one entry in a user's conversation history. History is ordered
// and append-only; a reset truncates it to empty.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Chart   *Chart `json:"chart,omitempty"` // transient, never written to disk
}

// ToolCall is a pending tool invocation surfaced by the provider under the
// manual policy.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ProviderReply is one provider response: either final text, or a pending
// tool call the session must resolve (manual policy only).
type ProviderReply struct {
	Text string
	Call *ToolCall
}

// TurnResult is the outcome of one completed conversation turn.
type TurnResult struct {
	Text  string
	Chart *Chart
}
