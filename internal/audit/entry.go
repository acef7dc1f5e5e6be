package audit

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Entry is one audit record: a single pipeline turn from text to outcome.
type Entry struct {
	Timestamp  string `json:"ts"`
	TurnID     string `json:"turn_id"`
	Text       string `json:"text"`
	Category   string `json:"category"`
	Source     string `json:"source,omitempty"`
	Platform   string `json:"platform,omitempty"`
	Command    string `json:"command,omitempty"`
	Allowed    bool   `json:"allowed"`
	Rule       string `json:"rule,omitempty"`
	Outcome    string `json:"outcome"`
	ExitCode   int    `json:"exit_code,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	PrevHash   string `json:"prev_hash"`
}

// NewTurnID generates a short random turn identifier.
func NewTurnID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("turn-%x", time.Now().UnixNano())
	}
	return "turn-" + hex.EncodeToString(b)
}

// UTCNowISO returns the current UTC time in ISO format with Z suffix.
func UTCNowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
