package driver

import (
	"encoding/json"
	"fmt"
	"time"

	"weft/internal/diag"
	"weft/internal/observ"
	"weft/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
	Compile map[string]int       `json:"compile_counts,omitempty"`
}

func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "build"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s, %s", msg, payload.Path)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  source.Span{},
		Notes: []diag.Note{
			{Span: source.Span{}, Msg: string(data)},
		},
	}

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(bag.Len() + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}

// phases wraps an observ.Timer with the optional observer callback.
type phases struct {
	timer    *observ.Timer
	observer PhaseObserver
}

type phase struct {
	idx     int
	name    string
	started time.Time
}

func (p phases) begin(name string) phase {
	if p.observer != nil {
		p.observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
	return phase{idx: p.timer.Begin(name), name: name, started: time.Now()}
}

func (p phases) end(ph phase, note string) {
	p.timer.End(ph.idx, note)
	if p.observer != nil {
		p.observer(PhaseEvent{Name: ph.name, Status: PhaseEnd, Elapsed: time.Since(ph.started)})
	}
}
