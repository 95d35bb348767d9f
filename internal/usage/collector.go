// Package usage accumulates per-response token usage over a session and
// persists session summaries.
package usage

import (
	"sync"
	"time"
)

// Sample is the token usage of a single model response.
type Sample struct {
	TotalTokens       int64
	InputTokens       int64
	OutputTokens      int64
	InputTextTokens   int64
	InputAudioTokens  int64
	InputCachedTokens int64
	OutputTextTokens  int64
	OutputAudioTokens int64
}

// Summary is the aggregate usage of one session.
type Summary struct {
	SessionID string
	StartedAt time.Time
	EndedAt   time.Time
	Responses int64

	TotalTokens       int64
	InputTokens       int64
	OutputTokens      int64
	InputTextTokens   int64
	InputAudioTokens  int64
	InputCachedTokens int64
	OutputTextTokens  int64
	OutputAudioTokens int64
}

// Collector aggregates usage samples as they arrive. Safe for use from
// the realtime read loop while other goroutines read the summary.
type Collector struct {
	mu        sync.Mutex
	sessionID string
	startedAt time.Time
	responses int64
	totals    Sample
}

// NewCollector creates a collector for the given session.
func NewCollector(sessionID string) *Collector {
	return &Collector{
		sessionID: sessionID,
		startedAt: time.Now().UTC(),
	}
}

// Record folds one response's usage into the running totals.
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.responses++
	c.totals.TotalTokens += s.TotalTokens
	c.totals.InputTokens += s.InputTokens
	c.totals.OutputTokens += s.OutputTokens
	c.totals.InputTextTokens += s.InputTextTokens
	c.totals.InputAudioTokens += s.InputAudioTokens
	c.totals.InputCachedTokens += s.InputCachedTokens
	c.totals.OutputTextTokens += s.OutputTextTokens
	c.totals.OutputAudioTokens += s.OutputAudioTokens
}

// Responses reports how many samples have been recorded.
func (c *Collector) Responses() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responses
}

// Summary snapshots the aggregate usage up to now.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Summary{
		SessionID: c.sessionID,
		StartedAt: c.startedAt,
		EndedAt:   time.Now().UTC(),
		Responses: c.responses,

		TotalTokens:        c.totals.TotalTokens,
		InputTokens:        c.totals.InputTokens,
		OutputTokens:       c.totals.OutputTokens,
		InputTextTokens:    c.totals.InputTextTokens,
		InputAudioTokens:   c.totals.InputAudioTokens,
		InputCachedTokens:  c.totals.InputCachedTokens,
		OutputTextTokens:   c.totals.OutputTextTokens,
		OutputAudioTokens:  c.totals.OutputAudioTokens,
	}
}
