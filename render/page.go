package render

import (
	"context"
	"fmt"
	"html"
	"html/template"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

const (
	plotWidth     = 600
	defaultHeight = 300

	marginLeft   = 60
	marginRight  = 120
	marginTop    = 30
	marginBottom = 45

	tickCount = 5
)

var palette = []string{"#4c78a8", "#f58518", "#54a24b", "#e45756", "#72b7b2", "#b279a2"}

// Page collects plots and writes them out as a single self-contained HTML
// document with inline SVG.  Plots appear in the order their containers were
// first used.
type Page struct {
	Title string

	sections []pageSection
}

type pageSection struct {
	Container string
	Title     string
	SVG       template.HTML
}

func NewPage(title string) *Page {
	return &Page{Title: title}
}

func (pg *Page) Scatter(ctx context.Context, p Scatterplot) error {
	if err := p.Validate(); err != nil {
		return err
	}
	pg.put(p.Container, p.Title, scatterSVG(&p))
	return nil
}

func (pg *Page) History(ctx context.Context, p HistoryPlot) error {
	if err := p.Validate(); err != nil {
		return err
	}
	pg.put(p.Container, p.Title, historySVG(&p))
	return nil
}

// Containers lists the container ids in page order.
func (pg *Page) Containers() []string {
	ids := make([]string, len(pg.sections))
	for i, s := range pg.sections {
		ids[i] = s.Container
	}
	return ids
}

func (pg *Page) put(container, title, svg string) {
	sec := pageSection{Container: container, Title: title, SVG: template.HTML(svg)}
	for i := range pg.sections {
		if pg.sections[i].Container == container {
			pg.sections[i] = sec
			return
		}
	}
	pg.sections = append(pg.sections, sec)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.plots { display: flex; flex-wrap: wrap; gap: 1.5em; }
.plot { border: 1px solid #ddd; padding: 0.5em; }
.plot h2 { font-size: 1em; margin: 0 0 0.5em 0; }
svg text { font-size: 11px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="plots">
{{- range .Sections}}
<div class="plot" id="{{.Container}}">
{{- if .Title}}<h2>{{.Title}}</h2>{{end}}
{{.SVG}}
</div>
{{- end}}
</div>
</body>
</html>
`))

func (pg *Page) Render(w io.Writer) error {
	data := struct {
		Title    string
		Sections []pageSection
	}{pg.Title, pg.sections}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("while executing page template: %w", err)
	}
	return nil
}

func (pg *Page) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating page file: %w", err)
	}
	defer f.Close()

	if err := pg.Render(f); err != nil {
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing page file: %w", err)
	}
	return nil
}

// axis maps data coordinates onto a pixel range.
type axis struct {
	min, max   float32
	from, to   float32
	tickFormat string
}

func makeAxis(values [][]float32, from, to float32, pad bool) axis {
	lo, hi := math32.Inf(1), math32.Inf(-1)
	for _, vs := range values {
		for _, v := range vs {
			lo = math32.Min(lo, v)
			hi = math32.Max(hi, v)
		}
	}
	if lo > hi {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	if pad {
		span := hi - lo
		lo -= 0.05 * span
		hi += 0.05 * span
	}
	return axis{min: lo, max: hi, from: from, to: to, tickFormat: "%.3g"}
}

func (a axis) scale(v float32) float32 {
	return a.from + (v-a.min)/(a.max-a.min)*(a.to-a.from)
}

func (a axis) ticks() []float32 {
	out := make([]float32, tickCount)
	for i := range out {
		out[i] = a.min + (a.max-a.min)*float32(i)/float32(tickCount-1)
	}
	return out
}

func fmtPx(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 1, 32)
}

// frame draws the axes, ticks, and axis labels shared by both plot kinds.
func frame(b *strings.Builder, xs, ys axis, xLabel, yLabel string, height int) {
	left, right := fmtPx(xs.from), fmtPx(xs.to)
	top, bottom := fmtPx(ys.to), fmtPx(ys.from)

	fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#333"/>`, left, bottom, right, bottom)
	fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#333"/>`, left, top, left, bottom)

	for _, t := range xs.ticks() {
		px := fmtPx(xs.scale(t))
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#eee"/>`, px, top, px, bottom)
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle">%s</text>`, px, fmtPx(ys.from+14), fmt.Sprintf(xs.tickFormat, t))
	}
	for _, t := range ys.ticks() {
		py := fmtPx(ys.scale(t))
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#eee"/>`, left, py, right, py)
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" dominant-baseline="middle">%s</text>`, fmtPx(xs.from-4), py, fmt.Sprintf(ys.tickFormat, t))
	}

	if xLabel != "" {
		fmt.Fprintf(b, `<text x="%s" y="%d" text-anchor="middle">%s</text>`, fmtPx((xs.from+xs.to)/2), height-6, html.EscapeString(xLabel))
	}
	if yLabel != "" {
		fmt.Fprintf(b, `<text x="14" y="%s" text-anchor="middle" transform="rotate(-90 14 %s)">%s</text>`,
			fmtPx((ys.from+ys.to)/2), fmtPx((ys.from+ys.to)/2), html.EscapeString(yLabel))
	}
}

func legend(b *strings.Builder, names []string) {
	x := plotWidth - marginRight + 12
	for i, name := range names {
		y := marginTop + 16*i
		fmt.Fprintf(b, `<rect x="%d" y="%d" width="10" height="10" fill="%s"/>`, x, y, palette[i%len(palette)])
		fmt.Fprintf(b, `<text x="%d" y="%d" dominant-baseline="hanging">%s</text>`, x+14, y, html.EscapeString(name))
	}
}

func scatterSVG(p *Scatterplot) string {
	height := p.Height
	if height == 0 {
		height = defaultHeight
	}

	var xv, yv [][]float32
	for _, s := range p.Series {
		xv = append(xv, s.X)
		yv = append(yv, s.Y)
	}
	xs := makeAxis(xv, marginLeft, plotWidth-marginRight, true)
	ys := makeAxis(yv, float32(height-marginBottom), marginTop, true)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, plotWidth, height, plotWidth, height)
	frame(&b, xs, ys, p.XLabel, p.YLabel, height)

	names := make([]string, len(p.Series))
	for i, s := range p.Series {
		names[i] = s.Name
		color := palette[i%len(palette)]
		fmt.Fprintf(&b, `<g fill="%s" fill-opacity="0.8">`, color)
		for k := range s.X {
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="2.5"/>`, fmtPx(xs.scale(s.X[k])), fmtPx(ys.scale(s.Y[k])))
		}
		b.WriteString(`</g>`)
	}
	if len(p.Series) > 1 || (len(p.Series) == 1 && p.Series[0].Name != "") {
		legend(&b, names)
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func historySVG(p *HistoryPlot) string {
	height := defaultHeight

	epochs := 0
	var yv [][]float32
	for _, m := range p.Metrics {
		yv = append(yv, p.Values[m])
		epochs = max(epochs, len(p.Values[m]))
	}

	xs := makeAxis([][]float32{{1, float32(max(epochs, 1))}}, marginLeft, plotWidth-marginRight, false)
	xs.tickFormat = "%.0f"
	ys := makeAxis(append(yv, []float32{0}), float32(height-marginBottom), marginTop, false)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, plotWidth, height, plotWidth, height)
	frame(&b, xs, ys, "Epoch", "Value", height)

	for i, m := range p.Metrics {
		color := palette[i%len(palette)]
		values := p.Values[m]

		points := make([]string, len(values))
		for k, v := range values {
			px, py := fmtPx(xs.scale(float32(k+1))), fmtPx(ys.scale(v))
			points[k] = px + "," + py
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="1.5" fill="%s"/>`, px, py, color)
		}
		fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="1.5" points="%s"/>`, color, strings.Join(points, " "))
	}
	legend(&b, p.Metrics)

	b.WriteString(`</svg>`)
	return b.String()
}
