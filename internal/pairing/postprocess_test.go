package pairing

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/parsons/internal/conversation"
)

var neutral = conversation.MessageAnalysis{Emotion: conversation.EmotionNeutral}

func TestPostProcess_Truncates(t *testing.T) {
	sentence := "This sentence is padded so that the whole reply runs well past the limit of characters. "
	reply := strings.Repeat(sentence, 10)

	got := PostProcess(reply, neutral, true)
	want := strings.TrimSpace(strings.Repeat(sentence, 4))
	if got != want {
		t.Errorf("PostProcess() kept %d runes, want the first 4 sentences", len([]rune(got)))
	}
}

func TestPostProcess_Punctuation(t *testing.T) {
	reply := "Look closely at where the loop body begins and which lines belong inside it"
	got := PostProcess(reply, neutral, true)
	if got != reply+"." {
		t.Errorf("PostProcess() = %q", got)
	}
}

func TestPostProcess_FollowUp(t *testing.T) {
	tests := []struct {
		name          string
		reply         string
		hasSubmission bool
		want          string
	}{
		{"short reply", "Think about the loop", false, "Think about the loop. What do you think the program needs to do first?"},
		{"generic reply", "Good job!", true, "Good job! Which line in your current solution are you least sure about?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PostProcess(tt.reply, neutral, tt.hasSubmission); got != tt.want {
				t.Errorf("PostProcess() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPostProcess_Prefaces(t *testing.T) {
	frustrated := conversation.MessageAnalysis{Emotion: conversation.EmotionFrustrated}
	confident := conversation.MessageAnalysis{Emotion: conversation.EmotionConfident}
	body := "Which line do you think should come right after the function definition?"

	tests := []struct {
		name  string
		reply string
		msg   conversation.MessageAnalysis
		want  string
	}{
		{"frustrated", body, frustrated, empatheticPreface + body},
		{"frustrated already acknowledged", "I understand. " + body, frustrated, "I understand. " + body},
		{"confident", body, confident, affirmingPreface + body},
		{"confident already praised", "Nice! " + body, confident, "Nice! " + body},
		{"neutral", body, neutral, body},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PostProcess(tt.reply, tt.msg, true); got != tt.want {
				t.Errorf("PostProcess() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPostProcess_Empty(t *testing.T) {
	if got := PostProcess("   ", neutral, false); got != "" {
		t.Errorf("PostProcess(blank) = %q", got)
	}
}
