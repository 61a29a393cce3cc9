package main

import (
	"context"

	"github.com/ahmedtd/polyfit/render"
)

type discardSink struct{}

func (discardSink) Scatter(ctx context.Context, p render.Scatterplot) error { return nil }
func (discardSink) History(ctx context.Context, p render.HistoryPlot) error  { return nil }
