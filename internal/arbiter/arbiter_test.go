package arbiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyArbiterPicksHighestFrequency(t *testing.T) {
	a := New()
	winner, ok := a.Select([]Candidate{
		{Text: "low", Frequency: 10},
		{Text: "high", Frequency: 500},
		{Text: "mid", Frequency: 100},
	})
	assert.True(t, ok)
	assert.Equal(t, "high", winner.Text)
}

func TestFrequencyArbiterBreaksTiesByConfidenceThenText(t *testing.T) {
	a := New()
	winner, ok := a.Select([]Candidate{
		{Text: "b", Frequency: 50, Confidence: 0.9},
		{Text: "a", Frequency: 50, Confidence: 0.9},
		{Text: "c", Frequency: 50, Confidence: 0.5},
	})
	assert.True(t, ok)
	assert.Equal(t, "a", winner.Text)
}

func TestFrequencyArbiterEmptyCandidates(t *testing.T) {
	a := New()
	_, ok := a.Select(nil)
	assert.False(t, ok)
}
