// Package report renders a self-contained HTML page describing one build:
// files in dependency order, interactive components, phase timings and
// diagnostics.
package report

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"weft/internal/diagfmt"
	"weft/internal/driver"
	"weft/internal/observ"
	"weft/internal/version"
)

// Data is everything the page shows.
type Data struct {
	Title       string
	Version     string
	Files       []FileRow
	Components  []ComponentRow
	Phases      []observ.PhaseReport
	TotalMS     float64
	CacheHits   int
	Diagnostics []diagfmt.DiagnosticJSON
}

type FileRow struct {
	Source  string
	Server  string
	Client  string
	Hash    string
	Cached  bool
	Imports []string
}

type ComponentRow struct {
	Name        string
	Source      string
	Interactive bool
	Props       []string
	Children    []string
}

// FromResult collects Data from a finished build.
func FromResult(title string, res *driver.Result) Data {
	d := Data{Title: title, Version: version.Version}
	if res == nil {
		return d
	}
	cached := map[string]bool{}
	for _, f := range res.Files {
		cached[f.Meta.Rel] = f.Cached
		for _, rec := range f.Records {
			row := ComponentRow{Name: rec.Name, Source: f.Meta.Rel, Interactive: rec.Interactive()}
			for _, p := range rec.Props {
				row.Props = append(row.Props, p.Name)
			}
			for _, c := range rec.Children {
				row.Children = append(row.Children, c.Name)
			}
			d.Components = append(d.Components, row)
		}
	}
	for _, mf := range res.Manifest.Files {
		d.Files = append(d.Files, FileRow{
			Source:  mf.Source,
			Server:  mf.Server,
			Client:  mf.Client,
			Hash:    mf.Hash,
			Cached:  cached[mf.Source],
			Imports: mf.Imports,
		})
	}
	if res.Timer != nil {
		rep := res.Timer.Report()
		d.Phases, d.TotalMS = rep.Phases, rep.TotalMS
	}
	d.CacheHits = res.CacheHits
	if res.Bag != nil {
		out := diagfmt.BuildDiagnosticsOutput(res.Bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
		})
		d.Diagnostics = out.Diagnostics
	}
	return d
}

// Write renders the page for d to w.
func Write(ctx context.Context, w io.Writer, d Data) error {
	return Page(d).Render(ctx, w)
}

// Page is the whole report document.
func Page(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!doctype html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			esc(d.Title), stylesheet); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<h1>%s</h1><p class=\"meta\">weft %s</p>", esc(d.Title), esc(d.Version)); err != nil {
			return err
		}
		for _, c := range []templ.Component{summary(d), filesTable(d.Files), componentsTable(d.Components), phasesTable(d.Phases, d.TotalMS), diagnosticsList(d.Diagnostics)} {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</body></html>\n")
		return err
	})
}

func summary(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		interactive := 0
		for _, c := range d.Components {
			if c.Interactive {
				interactive++
			}
		}
		errors, warnings := 0, 0
		for _, x := range d.Diagnostics {
			switch x.Severity {
			case "ERROR":
				errors++
			case "WARNING":
				warnings++
			}
		}
		_, err := fmt.Fprintf(w, `<section class="summary"><dl>`+
			`<dt>files</dt><dd>%d</dd><dt>components</dt><dd>%d</dd><dt>interactive</dt><dd>%d</dd>`+
			`<dt>cached</dt><dd>%d</dd><dt>errors</dt><dd>%d</dd><dt>warnings</dt><dd>%d</dd><dt>total</dt><dd>%.2f ms</dd>`+
			`</dl></section>`,
			len(d.Files), len(d.Components), interactive, d.CacheHits, errors, warnings, d.TotalMS)
		return err
	})
}

func filesTable(rows []FileRow) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<section><h2>Files</h2><table><thead><tr><th>#</th><th>source</th><th>server</th><th>client</th><th>renders</th><th>hash</th></tr></thead><tbody>`)
		for i, r := range rows {
			class := ""
			if r.Cached {
				class = ` class="cached"`
			}
			fmt.Fprintf(&sb, `<tr%s><td>%d</td><td>%s</td><td><code>%s</code></td><td><code>%s</code></td><td>%s</td><td><code>%s</code></td></tr>`,
				class, i+1, esc(r.Source), esc(r.Server), esc(dash(r.Client)), esc(strings.Join(r.Imports, ", ")), esc(dash(r.Hash)))
		}
		sb.WriteString(`</tbody></table></section>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func componentsTable(rows []ComponentRow) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<section><h2>Components</h2><table><thead><tr><th>name</th><th>source</th><th>client</th><th>props</th><th>renders</th></tr></thead><tbody>`)
		for _, r := range rows {
			mark := "server"
			if r.Interactive {
				mark = `<span class="client">hydrates</span>`
			}
			fmt.Fprintf(&sb, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				esc(r.Name), esc(r.Source), mark, esc(strings.Join(r.Props, ", ")), esc(strings.Join(r.Children, ", ")))
		}
		sb.WriteString(`</tbody></table></section>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func phasesTable(phases []observ.PhaseReport, total float64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(phases) == 0 {
			return nil
		}
		var sb strings.Builder
		sb.WriteString(`<section><h2>Timings</h2><table><tbody>`)
		for _, p := range phases {
			width := 0.0
			if total > 0 {
				width = 100 * p.DurationMS / total
			}
			fmt.Fprintf(&sb, `<tr><td>%s</td><td class="num">%.2f ms</td><td><div class="bar" style="width:%.1f%%"></div></td><td>%s</td></tr>`,
				esc(p.Name), p.DurationMS, width, esc(p.Note))
		}
		sb.WriteString(`</tbody></table></section>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func diagnosticsList(items []diagfmt.DiagnosticJSON) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<section><h2>Diagnostics</h2>`)
		if len(items) == 0 {
			sb.WriteString(`<p class="meta">none</p></section>`)
			_, err := io.WriteString(w, sb.String())
			return err
		}
		sb.WriteString(`<ul class="diags">`)
		for _, d := range items {
			loc := ""
			if d.Location.File != "" {
				loc = fmt.Sprintf("%s:%d:%d ", d.Location.File, d.Location.StartLine, d.Location.StartCol)
			}
			fmt.Fprintf(&sb, `<li class="%s"><code>%s%s</code> %s</li>`,
				strings.ToLower(esc(d.Severity)), esc(loc), esc(d.Code), esc(d.Message))
		}
		sb.WriteString(`</ul></section>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func esc(s string) string { return html.EscapeString(s) }

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

const stylesheet = `body{font:14px/1.4 system-ui,sans-serif;margin:2rem;color:#222}
h1{margin-bottom:0}.meta{color:#777}
table{border-collapse:collapse;width:100%}td,th{border-bottom:1px solid #eee;padding:4px 8px;text-align:left}
tr.cached td{color:#36c}.client{color:#2a2;font-weight:600}
.num{text-align:right}.bar{background:#6bf;height:8px}
dl{display:grid;grid-template-columns:max-content auto;gap:2px 12px}dt{color:#777}
.diags li.error{color:#c22}.diags li.warning{color:#b70}`
