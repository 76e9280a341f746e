package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"weft/internal/diag"
	"weft/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Ожидается bag.Sort() заранее. Формат:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//	  <line text>
//	  ^~~~
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := printer{w: w, fs: fs, opts: opts}
	p.sevColors = map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan),
	}
	p.dim = color.New(color.Faint)
	p.caret = color.New(color.FgGreen, color.Bold)
	for _, c := range []*color.Color{p.dim, p.caret, p.sevColors[diag.SevError], p.sevColors[diag.SevWarning], p.sevColors[diag.SevInfo]} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	for _, d := range bag.Items() {
		p.diagnostic(d)
	}
}

type printer struct {
	w         io.Writer
	fs        *source.FileSet
	opts      PrettyOpts
	sevColors map[diag.Severity]*color.Color
	dim       *color.Color
	caret     *color.Color
}

func (p *printer) diagnostic(d diag.Diagnostic) {
	sev := p.sevColors[d.Severity]
	if sev == nil {
		sev = p.dim
	}
	loc := p.location(d.Primary)
	if loc != "" {
		loc += ": "
	}
	fmt.Fprintf(p.w, "%s%s %s: %s\n", loc, sev.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
	p.snippet(d.Primary)
	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			nl := p.location(n.Span)
			if nl != "" {
				nl += ": "
			}
			fmt.Fprintf(p.w, "  %s%s %s\n", nl, p.dim.Sprint("note:"), n.Msg)
		}
	}
	if p.opts.ShowFixes {
		for _, f := range d.Fixes {
			fmt.Fprintf(p.w, "  %s %s\n", p.dim.Sprint("fix:"), f.Title)
		}
	}
}

func (p *printer) location(span source.Span) string {
	f := lookup(p.fs, span)
	if f == nil {
		return ""
	}
	start, _ := p.fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(p.fs, f, p.opts.PathMode), start.Line, start.Col)
}

func (p *printer) snippet(span source.Span) {
	f := lookup(p.fs, span)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := p.fs.Resolve(span)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	prefix := line[:min(int(start.Col)-1, len(line))]
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = runewidth.StringWidth(line[min(int(start.Col)-1, len(line)):min(int(end.Col)-1, len(line))])
	}
	pad := strings.Repeat(" ", runewidth.StringWidth(strings.ReplaceAll(prefix, "\t", " ")))
	fmt.Fprintf(p.w, "  %s\n", strings.ReplaceAll(line, "\t", " "))
	fmt.Fprintf(p.w, "  %s%s\n", pad, p.caret.Sprint("^"+strings.Repeat("~", max(width-1, 0))))
}
