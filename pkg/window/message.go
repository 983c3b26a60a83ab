package window

import (
	"fmt"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Validate rejects roles outside the known set.
func (r Role) Validate() error {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return nil
	default:
		return fmt.Errorf("unknown role: %q", string(r))
	}
}

// Message is one entry in the context window. The manager owns the token
// estimate and importance; both may change during a compression pass.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Tokens is the current estimated token cost of Content.
	Tokens     int        `json:"tokens"`
	Importance Importance `json:"importance"`
	// Compressed marks messages whose content was rewritten by a pass.
	Compressed bool `json:"compressed,omitempty"`
	// OriginalTokens is the estimate before the first rewrite.
	OriginalTokens int `json:"original_tokens,omitempty"`
	// CompressionRatio is Tokens/OriginalTokens after a rewrite.
	CompressionRatio float64                `json:"compression_ratio,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// estimateTokens approximates the token cost of content as one token per
// four bytes, rounded up. Empty content costs nothing.
func estimateTokens(content string) int {
	return (len(content) + 3) / 4
}
