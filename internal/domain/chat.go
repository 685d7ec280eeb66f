package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the probe
// and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProbeRequest is the single request a probe run submits.
type ProbeRequest struct {
	BaseURL  string
	Model    string
	Messages []ChatMessage
}

// Completion carries the first choice of a chat completion. HasContent is
// false when the service returned a null or absent message content.
type Completion struct {
	Content    string
	HasContent bool
}
