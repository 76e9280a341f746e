// Package observ measures build phases for --timings and the build report.
package observ

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Phase is one measured step of a build.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer collects phases in the order they begin. Workers running in parallel
// may end their phases concurrently.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Begin opens a phase and returns a handle for End. A nil Timer hands out -1.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End closes the phase opened by Begin. Unknown handles are ignored, and so
// is a second End for the same phase.
func (t *Timer) End(idx int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) || t.phases[idx].Dur != 0 {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
}

type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report is the serializable form of a Timer. TotalMS is the sum of phase
// durations.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rep := Report{Phases: make([]PhaseReport, 0, len(t.phases))}
	var total time.Duration
	for _, p := range t.phases {
		total += p.Dur
		rep.Phases = append(rep.Phases, PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note})
	}
	rep.TotalMS = millis(total)
	return rep
}

// WriteTable prints one aligned row per phase followed by the total.
func (r Report) WriteTable(w io.Writer) error {
	width := len("total")
	for _, p := range r.Phases {
		width = max(width, len(p.Name))
	}
	for _, p := range r.Phases {
		var err error
		if p.Note != "" {
			_, err = fmt.Fprintf(w, "%-*s %8.1f ms  %s\n", width, p.Name, p.DurationMS, p.Note)
		} else {
			_, err = fmt.Fprintf(w, "%-*s %8.1f ms\n", width, p.Name, p.DurationMS)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%-*s %8.1f ms\n", width, "total", r.TotalMS)
	return err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
