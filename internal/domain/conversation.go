package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a conversation turn
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

// ParseRole maps a wire role onto a Role. Anything that is not clearly the
// tutor is treated as the student.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tutor", "assistant", "ai":
		return RoleTutor
	default:
		return RoleStudent
	}
}

// Turn is one message of a tutoring conversation. Turns are immutable once
// built at the API boundary.
type Turn struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	IsTyping  bool   `json:"isTyping,omitempty"`
}

// NewTurn builds a Turn, filling a missing id and timestamp
func NewTurn(id string, role Role, content string, timestamp int64) Turn {
	if id == "" {
		id = uuid.New().String()
	}
	if timestamp <= 0 {
		timestamp = NowMillis()
	}
	return Turn{
		ID:        id,
		Role:      role,
		Content:   content,
		Timestamp: timestamp,
	}
}

// IsStudent reports whether the learner authored the turn
func (t Turn) IsStudent() bool { return t.Role == RoleStudent }

// IsTutor reports whether the tutor authored the turn
func (t Turn) IsTutor() bool { return t.Role == RoleTutor }

// Transcript is an ordered conversation, oldest first
type Transcript []Turn

// StudentTurns returns the learner's turns in order
func (tr Transcript) StudentTurns() []Turn {
	var out []Turn
	for _, t := range tr {
		if t.IsStudent() {
			out = append(out, t)
		}
	}
	return out
}

// LastTutorTurn returns the most recent tutor turn
func (tr Transcript) LastTutorTurn() (Turn, bool) {
	for i := len(tr) - 1; i >= 0; i-- {
		if tr[i].IsTutor() {
			return tr[i], true
		}
	}
	return Turn{}, false
}

// Tail returns at most the last n turns
func (tr Transcript) Tail(n int) Transcript {
	if n <= 0 || len(tr) <= n {
		return tr
	}
	return tr[len(tr)-n:]
}

// NewChatMessageID returns an id of the form chat_<ms>_<8 hex chars>
func NewChatMessageID(now time.Time) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("chat_%d_%s", now.UnixMilli(), hex[:8])
}

// NowMillis returns the current time in unix milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
