package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler collects per-frame CPU timings for the scene update path.
// Scopes keep their first-seen order so the printed report is stable
// frame to frame.
type Profiler struct {
	durations map[string]time.Duration
	starts    map[string]time.Time
	counts    map[string]int
	order     []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		durations: make(map[string]time.Duration),
		starts:    make(map[string]time.Time),
		counts:    make(map[string]int),
	}
}

func (p *Profiler) Begin(name string) {
	if _, seen := p.durations[name]; !seen {
		p.order = append(p.order, name)
		p.durations[name] = 0
	}
	p.starts[name] = time.Now()
}

func (p *Profiler) End(name string) {
	if start, ok := p.starts[name]; ok {
		p.durations[name] = time.Since(start)
		delete(p.starts, name)
	}
}

// SetCount records a gauge such as triangle or node counts, printed
// alongside the timings.
func (p *Profiler) SetCount(name string, n int) {
	p.counts[name] = n
}

func (p *Profiler) Reset() {
	for k := range p.durations {
		p.durations[k] = 0
	}
}

func (p *Profiler) Stats() string {
	var sb strings.Builder
	for _, name := range p.order {
		ms := float64(p.durations[name].Microseconds()) / 1000.0
		fmt.Fprintf(&sb, "%s=%.2fms ", name, ms)
	}
	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%d ", k, p.counts[k])
	}
	return strings.TrimSpace(sb.String())
}
