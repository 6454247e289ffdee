package daemon

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/parsons/internal/domain"
)

// wireTurn is the loose client shape of a chat history entry. Every field
// is optional.
type wireTurn struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Timestamp json.Number     `json:"timestamp"`
}

// parseHistory builds the transcript once at the boundary. Objects with
// missing fields get defaults; entries of any other shape are rejected
// naming their index.
func parseHistory(raw []json.RawMessage) (domain.Transcript, error) {
	transcript := make(domain.Transcript, 0, len(raw))
	for i, entry := range raw {
		var wt wireTurn
		if err := json.Unmarshal(entry, &wt); err != nil {
			return nil, fmt.Errorf("%w: chatHistory[%d] is malformed", domain.ErrInvalidTranscriptTurn, i)
		}

		var content string
		if len(wt.Content) > 0 && string(wt.Content) != "null" {
			if err := json.Unmarshal(wt.Content, &content); err != nil {
				return nil, fmt.Errorf("%w: chatHistory[%d].content must be a string", domain.ErrInvalidTranscriptTurn, i)
			}
		}

		ts, _ := wt.Timestamp.Int64()
		if ts == 0 {
			if f, err := wt.Timestamp.Float64(); err == nil {
				ts = int64(f)
			}
		}
		transcript = append(transcript, domain.NewTurn(wt.ID, domain.ParseRole(wt.Role), content, ts))
	}
	return transcript, nil
}
