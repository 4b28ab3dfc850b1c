package domtree

import (
	"time"
)

// Operation names reported in Metrics.
const (
	OpVisibility     = "visibility"
	OpTextVisibility = "textVisibility"
	OpInteractivity  = "interactivity"
	OpTopmost        = "topmost"
	OpViewport       = "viewport"
	OpHighlight      = "highlight"
	OpRect           = "rect"
	OpStyle          = "style"
)

// Metrics describes the cost of one Build call. Durations are milliseconds.
type Metrics struct {
	BuildCalls    int                `json:"buildDomTreeCalls"`
	BuildDuration float64            `json:"buildDurationMs"`
	CallCounts    map[string]int     `json:"callCounts"`
	Timings       map[string]float64 `json:"timings"`
	Cache         CacheMetrics       `json:"cacheMetrics"`
	Nodes         NodeMetrics        `json:"nodeMetrics"`
}

// CacheMetrics counts geometry and style cache lookups.
type CacheMetrics struct {
	RectHits       int     `json:"boundingRectCacheHits"`
	RectMisses     int     `json:"boundingRectCacheMisses"`
	StyleHits      int     `json:"computedStyleCacheHits"`
	StyleMisses    int     `json:"computedStyleCacheMisses"`
	RectHitRate    float64 `json:"boundingRectHitRate"`
	StyleHitRate   float64 `json:"computedStyleHitRate"`
	OverallHitRate float64 `json:"overallHitRate"`
}

// NodeMetrics counts visited nodes.
type NodeMetrics struct {
	Total     int `json:"totalNodes"`
	Processed int `json:"processedNodes"`
	Skipped   int `json:"skippedNodes"`
}

func newMetrics() *Metrics {
	return &Metrics{
		CallCounts: make(map[string]int),
		Timings:    make(map[string]float64),
	}
}

// track counts a call to op and returns a func recording its duration.
// A nil receiver makes both no-ops.
func (m *Metrics) track(op string) func() {
	if m == nil {
		return func() {}
	}
	m.CallCounts[op]++
	start := time.Now()
	return func() {
		m.Timings[op] += ms(time.Since(start))
	}
}

func (m *Metrics) finish(elapsed time.Duration) {
	m.BuildDuration = ms(elapsed)
	c := &m.Cache
	c.RectHitRate = rate(c.RectHits, c.RectMisses)
	c.StyleHitRate = rate(c.StyleHits, c.StyleMisses)
	c.OverallHitRate = rate(c.RectHits+c.StyleHits, c.RectMisses+c.StyleMisses)
}

func rate(hits, misses int) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
