package domain

import (
	"regexp"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"student", RoleStudent},
		{"tutor", RoleTutor},
		{"Tutor ", RoleTutor},
		{"assistant", RoleTutor},
		{"", RoleStudent},
		{"mentor?", RoleStudent},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewTurn_FillsDefaults(t *testing.T) {
	turn := NewTurn("", RoleStudent, "hi", 0)
	if turn.ID == "" {
		t.Error("expected generated id")
	}
	if turn.Timestamp <= 0 {
		t.Error("expected timestamp to default to now")
	}

	kept := NewTurn("m1", RoleTutor, "hello", 42)
	if kept.ID != "m1" || kept.Timestamp != 42 {
		t.Errorf("NewTurn overwrote explicit values: %+v", kept)
	}
}

func TestTranscript(t *testing.T) {
	tr := Transcript{
		{Role: RoleStudent, Content: "a"},
		{Role: RoleTutor, Content: "b"},
		{Role: RoleStudent, Content: "c"},
		{Role: RoleTutor, Content: "d"},
		{Role: RoleStudent, Content: "e"},
	}

	if got := len(tr.StudentTurns()); got != 3 {
		t.Errorf("StudentTurns() len = %d, want 3", got)
	}

	last, ok := tr.LastTutorTurn()
	if !ok || last.Content != "d" {
		t.Errorf("LastTutorTurn() = %+v, %v", last, ok)
	}

	if _, ok := (Transcript{}).LastTutorTurn(); ok {
		t.Error("empty transcript should have no tutor turn")
	}

	tail := tr.Tail(2)
	if len(tail) != 2 || tail[0].Content != "d" {
		t.Errorf("Tail(2) = %+v", tail)
	}
	if len(tr.Tail(10)) != 5 {
		t.Error("Tail larger than transcript should return all turns")
	}
}

func TestNewChatMessageID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewChatMessageID(now)
	if !regexp.MustCompile(`^chat_1700000000123_[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("NewChatMessageID() = %q", id)
	}
}

func TestProblemTouchAndClone(t *testing.T) {
	p := &Problem{ID: "1", Tags: []string{"a"}}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.Touch(now)
	if p.CreatedAt != "2024-01-02T03:04:05Z" || p.UpdatedAt != p.CreatedAt {
		t.Errorf("Touch() = %q / %q", p.CreatedAt, p.UpdatedAt)
	}

	p.Touch(now.Add(time.Hour))
	if p.CreatedAt != "2024-01-02T03:04:05Z" {
		t.Error("Touch() must not move CreatedAt")
	}

	c := p.Clone()
	c.Tags[0] = "b"
	if p.Tags[0] != "a" {
		t.Error("Clone() shares the tags slice")
	}
}
