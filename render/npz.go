package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sbinet/npyio/npz"
)

// NPZ writes every plot's arrays into a numpy .npz archive so the same
// numbers can be reloaded with numpy.load.  Keys are
//
//	<container>/<series>_x.npy, <container>/<series>_y.npy
//	<container>/<metric>.npy
type NPZ struct {
	w *npz.Writer
	f io.Closer
}

func NewNPZ(w io.Writer) *NPZ {
	return &NPZ{w: npz.NewWriter(w)}
}

func CreateNPZ(path string) (*NPZ, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("while creating npz file: %w", err)
	}
	return &NPZ{w: npz.NewWriter(f), f: f}, nil
}

// NPZKey is the archive entry name for one array of a plot.
func NPZKey(container, name string) string {
	name = strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' {
			return '_'
		}
		return r
	}, name)
	return container + "/" + name + ".npy"
}

func (s *NPZ) Scatter(ctx context.Context, p Scatterplot) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for i, series := range p.Series {
		name := series.Name
		if name == "" {
			name = fmt.Sprintf("series%d", i)
		}
		if err := s.w.Write(NPZKey(p.Container, name+"_x"), series.X); err != nil {
			return fmt.Errorf("while writing %s x values: %w", p.Container, err)
		}
		if err := s.w.Write(NPZKey(p.Container, name+"_y"), series.Y); err != nil {
			return fmt.Errorf("while writing %s y values: %w", p.Container, err)
		}
	}
	return nil
}

func (s *NPZ) History(ctx context.Context, p HistoryPlot) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, m := range p.Metrics {
		if err := s.w.Write(NPZKey(p.Container, m), p.Values[m]); err != nil {
			return fmt.Errorf("while writing %s %s values: %w", p.Container, m, err)
		}
	}
	return nil
}

// Close finishes the archive.  Nothing is readable until Close returns.
func (s *NPZ) Close() error {
	if err := s.w.Close(); err != nil {
		return fmt.Errorf("while finishing npz archive: %w", err)
	}
	if s.f != nil {
		if err := s.f.Close(); err != nil {
			return fmt.Errorf("while closing npz file: %w", err)
		}
	}
	return nil
}
