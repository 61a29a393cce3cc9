// Package render turns scatterplot and loss-history requests into output a
// person can look at: an HTML page, a numpy archive, or both.
package render

import (
	"context"
	"fmt"

	"github.com/chewxy/math32"
)

// Series is one named set of points.  X and Y must have the same length.
type Series struct {
	Name string
	X    []float32
	Y    []float32
}

type Scatterplot struct {
	// Container identifies where the plot goes.  A later plot for the same
	// container replaces the earlier one.
	Container string

	Title  string
	XLabel string
	YLabel string
	Height int

	Series []Series
}

// HistoryPlot is a per-epoch training curve.  Values holds one sequence per
// entry of Metrics.
type HistoryPlot struct {
	Container string
	Title     string
	Metrics   []string
	Values    map[string][]float32
}

type Sink interface {
	Scatter(ctx context.Context, p Scatterplot) error
	History(ctx context.Context, p HistoryPlot) error
}

func (p *Scatterplot) Validate() error {
	if p.Container == "" {
		return fmt.Errorf("scatterplot %q has no container", p.Title)
	}
	if p.Height < 0 {
		return fmt.Errorf("scatterplot %s: negative height %d", p.Container, p.Height)
	}
	for _, s := range p.Series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("scatterplot %s: series %q has %d x values but %d y values", p.Container, s.Name, len(s.X), len(s.Y))
		}
		if err := checkFinite(s.X); err != nil {
			return fmt.Errorf("scatterplot %s: series %q x: %w", p.Container, s.Name, err)
		}
		if err := checkFinite(s.Y); err != nil {
			return fmt.Errorf("scatterplot %s: series %q y: %w", p.Container, s.Name, err)
		}
	}
	return nil
}

func (p *HistoryPlot) Validate() error {
	if p.Container == "" {
		return fmt.Errorf("history plot %q has no container", p.Title)
	}
	for _, m := range p.Metrics {
		values, ok := p.Values[m]
		if !ok {
			return fmt.Errorf("history plot %s: no values for metric %q", p.Container, m)
		}
		if err := checkFinite(values); err != nil {
			return fmt.Errorf("history plot %s: metric %q: %w", p.Container, m, err)
		}
	}
	return nil
}

func checkFinite(v []float32) error {
	for i, f := range v {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return fmt.Errorf("value %d is %v", i, f)
		}
	}
	return nil
}

// Tee forwards every request to each sink in order, stopping at the first
// error.
type Tee []Sink

func (t Tee) Scatter(ctx context.Context, p Scatterplot) error {
	for _, s := range t {
		if err := s.Scatter(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) History(ctx context.Context, p HistoryPlot) error {
	for _, s := range t {
		if err := s.History(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
