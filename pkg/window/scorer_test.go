package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultScorerSystemRole(t *testing.T) {
	got := defaultScorer(Message{Role: RoleSystem, Content: "be terse"}, 0, 10)
	assert.Equal(t, ImportanceCritical, got)
}

func TestDefaultScorerKeywords(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Importance
	}{
		{"important", "this is IMPORTANT context", ImportanceHigh},
		{"critical", "a critical dependency broke", ImportanceHigh},
		{"error", "got an error from the API", ImportanceHigh},
		{"embedded", "unimportant chatter", ImportanceHigh},
		{"no keyword", "just catching up", ImportanceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Index 0 of 10 would otherwise score low by recency.
			got := defaultScorer(Message{Role: RoleUser, Content: tt.content}, 0, 10)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultScorerRecencyQuantiles(t *testing.T) {
	// With ten positions: the newest two score high, the next three medium,
	// the oldest five low.
	want := []Importance{
		ImportanceLow, ImportanceLow, ImportanceLow, ImportanceLow, ImportanceLow,
		ImportanceMedium, ImportanceMedium, ImportanceMedium,
		ImportanceHigh, ImportanceHigh,
	}

	for index, expected := range want {
		got := defaultScorer(Message{Role: RoleUser, Content: "plain"}, index, 10)
		assert.Equal(t, expected, got, "index %d", index)
	}
}

func TestDefaultScorerSingleMessage(t *testing.T) {
	got := defaultScorer(Message{Role: RoleUser, Content: "plain"}, 0, 1)
	assert.Equal(t, ImportanceHigh, got)
}

func TestDefaultScorerEmptyWindow(t *testing.T) {
	got := defaultScorer(Message{Role: RoleUser, Content: "plain"}, 0, 0)
	assert.Equal(t, ImportanceLow, got)
}
