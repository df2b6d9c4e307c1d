// Package arbiter picks a winner among competing translation candidates for
// the same span. The teacher used this package to choose among several
// network translation services racing in parallel; here there is only one,
// offline pipeline, so the competition instead happens within a single
// repository lookup when more than one entry matches the same source word
// or phrase (homonyms, duplicate imports). The interface is kept separate
// from its default implementation so a caller can wire a different
// selection strategy without touching call sites.
package arbiter

// Candidate is one translation option competing for selection. Text
// identifies the candidate to the caller (an entry ID, not necessarily the
// translated text itself); Frequency and Confidence are the two signals the
// default arbiter ranks on.
type Candidate struct {
	Text       string
	Frequency  int
	Confidence float64
}

// Arbiter picks a winner among candidates. Select returns false when
// candidates is empty.
type Arbiter interface {
	Select(candidates []Candidate) (Candidate, bool)
}

// FrequencyArbiter ranks candidates by Frequency (the "most common sense
// wins" rule), breaking ties by Confidence and finally by Text for full
// determinism. It never calls out to a network service or model, consistent
// with the engine's offline operation.
type FrequencyArbiter struct{}

// New returns the default, deterministic arbiter.
func New() *FrequencyArbiter { return &FrequencyArbiter{} }

func (FrequencyArbiter) Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if beats(c, best) {
			best = c
		}
	}
	return best, true
}

func beats(a, b Candidate) bool {
	if a.Frequency != b.Frequency {
		return a.Frequency > b.Frequency
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Text < b.Text
}
