package model

import "time"

// Narrative is the optional LLM-written summary of a matched case.
// It is generated after ranking and never influences the score.
type Narrative struct {
	Enabled         bool      `json:"enabled"`
	Provider        string    `json:"provider,omitempty"`
	Model           string    `json:"model,omitempty"`
	StrictGrounding bool      `json:"strict_grounding"`
	Text            string    `json:"text,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
	GeneratedAt     time.Time `json:"generated_at,omitempty"`
}
