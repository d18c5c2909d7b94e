// Package chart draws Views with gonum/plot and writes them as PNG images.
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/penwyp/go-sensor-monitor/internal/core/constants"
	"github.com/penwyp/go-sensor-monitor/internal/core/model"
	"github.com/penwyp/go-sensor-monitor/internal/util"
)

// Kind selects how a View is drawn.
type Kind string

const (
	KindLine         Kind = "line"
	KindScatter      Kind = "scatter"
	KindDistribution Kind = "distribution"
)

const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// ParseKind maps a flag value to a Kind. Empty means line.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case "", KindLine:
		return KindLine, nil
	case KindScatter:
		return KindScatter, nil
	case KindDistribution, "hist", "histogram":
		return KindDistribution, nil
	default:
		return "", fmt.Errorf("unknown chart kind %q (want line, scatter or distribution)", name)
	}
}

// Options controls Draw.
type Options struct {
	Kind  Kind
	Title string
	// Column drawn by the distribution kind; empty picks the last column.
	Column string
	Bins   int
	Width  vg.Length
	Height vg.Length
}

func (o Options) withDefaults() Options {
	if o.Kind == "" {
		o.Kind = KindLine
	}
	if o.Title == "" {
		o.Title = "Sensor readings"
	}
	if o.Bins <= 0 {
		o.Bins = constants.DefaultHistogramBins
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Draw builds a plot of v. An empty view gives a titled placeholder plot.
func Draw(v model.View, opts Options) (*plot.Plot, error) {
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = opts.Title
	p.Legend.Top = true

	if v.IsEmpty() || len(v.Columns) == 0 {
		p.Title.Text = opts.Title + " (no samples)"
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	var err error
	switch opts.Kind {
	case KindLine:
		err = drawLines(p, v)
	case KindScatter:
		err = drawScatter(p, v)
	case KindDistribution:
		err = drawDistribution(p, v, opts)
	default:
		err = fmt.Errorf("unknown chart kind %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Encode draws v and writes it to w as a PNG image.
func Encode(w io.Writer, v model.View, opts Options) error {
	opts = opts.withDefaults()
	p, err := Draw(v, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func timeAxis(p *plot.Plot) {
	p.X.Label.Text = model.TimestampColumn
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04:05", Time: tickTime}
}

// tickTime maps an axis value back to a time in the configured timezone.
func tickTime(t float64) time.Time {
	return time.Unix(int64(t), 0).In(util.GetTimeProvider().Location())
}

// segments splits one column into runs of finite points. gonum rejects NaN,
// so a missing cell breaks the line.
func segments(v model.View, col int) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for _, row := range v.Rows {
		y := row.Values[col]
		if math.IsNaN(y) || math.IsInf(y, 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(row.Timestamp.Unix()), Y: y})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func drawLines(p *plot.Plot, v model.View) error {
	timeAxis(p)
	for i, name := range v.Columns {
		for j, seg := range segments(v, i) {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return fmt.Errorf("failed to draw %s: %w", name, err)
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			if j == 0 {
				p.Legend.Add(name, line)
			}
		}
	}
	return nil
}

func drawScatter(p *plot.Plot, v model.View) error {
	timeAxis(p)
	for i, name := range v.Columns {
		var pts plotter.XYs
		for _, seg := range segments(v, i) {
			pts = append(pts, seg...)
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("failed to draw %s: %w", name, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(sc)
		p.Legend.Add(name, sc)
	}
	return nil
}

func drawDistribution(p *plot.Plot, v model.View, opts Options) error {
	column := opts.Column
	if column == "" {
		column = v.Columns[len(v.Columns)-1]
	}
	series := v.Series(column)
	if series == nil {
		return fmt.Errorf("column %q is not in the view", column)
	}

	values := make(plotter.Values, 0, len(series))
	for _, x := range series {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			values = append(values, x)
		}
	}
	p.X.Label.Text = column
	p.Y.Label.Text = "Count"
	if len(values) == 0 {
		p.Title.Text = opts.Title + " (no finite values)"
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return nil
	}

	hist, err := plotter.NewHist(values, opts.Bins)
	if err != nil {
		return fmt.Errorf("failed to draw %s distribution: %w", column, err)
	}
	hist.FillColor = plotutil.Color(v.ColumnIndex(column))
	p.Add(hist)
	return nil
}
