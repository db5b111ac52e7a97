package domain

// Conversation turn roles understood by the generation backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the usecase
// layer and the generation backend client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
