package engine

import "github.com/valpere/lexbridge/internal/cache"

// Metrics is the snapshot get_metrics() returns (spec §6): request counters,
// admission-queue occupancy, and the per-kind cache metrics the dictionary
// and phrase repositories maintain.
type Metrics struct {
	RequestsTotal    int64
	RequestsFailed   int64
	LayerInvocations int64
	QueueDepth       int
	QueueCapacity    int
	WordsCache       cache.Metrics
	PhrasesCache     cache.Metrics
}
