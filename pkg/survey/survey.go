// Package survey evaluates exposure profiles for many sources at once.
package survey

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/mchmarny/radex/pkg/source"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	workersDefault = 4
)

// DefaultDistances are the standoff distances (m) evaluated when none are
// given.
var DefaultDistances = []float64{0.0, 0.3, 1.0, 2.0, 3.0}

// ErrNonFinite is returned when the model yields NaN or an infinite value,
// e.g. for a non-positive buildup factor or a large negative exponent.
var ErrNonFinite = errors.New("non-finite result")

// CheckFinite returns ErrNonFinite naming param unless v is a finite number.
func CheckFinite(param string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Wrapf(ErrNonFinite, "%s=%v", param, v)
	}
	return nil
}

// Item is one source to evaluate.
type Item struct {
	Name      string            `json:"name" yaml:"name"`
	Source    source.Spec       `json:"source" yaml:"source"`
	Reference *source.Reference `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Point is the exposure at a single standoff distance.
type Point struct {
	Distance float64 `json:"distance" yaml:"distance"`
	Exposure float64 `json:"exposure" yaml:"exposure"`
}

// Row is the evaluated profile of one item.
type Row struct {
	Name         string            `json:"name" yaml:"name"`
	Shape        source.Shape      `json:"shape" yaml:"shape"`
	Contact      float64           `json:"contact" yaml:"contact"`
	SelfDistance float64           `json:"self_distance" yaml:"selfDistance"`
	Exponent     float64           `json:"n" yaml:"n"`
	Calibrated   bool              `json:"calibrated" yaml:"calibrated"`
	Reference    *source.Reference `json:"reference,omitempty" yaml:"reference,omitempty"`
	Points       []*Point          `json:"points" yaml:"points"`
}

// Report is the result of a survey run.
type Report struct {
	RunID     string    `json:"run_id" yaml:"runID"`
	Distances []float64 `json:"distances" yaml:"distances"`
	Rows      []*Row    `json:"rows" yaml:"rows"`
}

type options struct {
	workers int
	observe func(*Row)
}

// Option configures Run.
type Option func(*options)

// WithWorkers limits the number of concurrent evaluations.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithObserver registers a callback invoked for every evaluated row. It may
// be called concurrently.
func WithObserver(fn func(*Row)) Option {
	return func(o *options) {
		o.observe = fn
	}
}

// Evaluate builds the source for item and projects it over distances.
func Evaluate(item Item, distances []float64) (*Row, error) {
	src, err := source.New(item.Source)
	if err != nil {
		return nil, err
	}
	return Profile(item.Name, src, item.Reference, distances)
}

// Profile projects an already constructed source over distances.
func Profile(name string, src source.Source, ref *source.Reference, distances []float64) (*Row, error) {
	n, err := src.EstimateN(ref)
	if err != nil {
		return nil, err
	}
	if err := CheckFinite("n", n); err != nil {
		return nil, err
	}

	row := &Row{
		Name:         name,
		Shape:        src.Shape(),
		Contact:      src.ContactExposure(),
		SelfDistance: src.SelfDistance(),
		Exponent:     n,
		Calibrated:   ref != nil,
		Reference:    ref,
		Points:       make([]*Point, 0, len(distances)),
	}

	for _, d := range distances {
		x, err := src.ExposureAt(d, ref)
		if err != nil {
			return nil, err
		}
		if err := CheckFinite("exposure", x); err != nil {
			return nil, errors.Wrapf(err, "distance %v", d)
		}
		row.Points = append(row.Points, &Point{Distance: d, Exposure: x})
	}

	return row, nil
}

// Run evaluates all items concurrently. Rows keep the order of items. The
// first failure cancels the remaining evaluations.
func Run(ctx context.Context, items []Item, distances []float64, opts ...Option) (*Report, error) {
	if len(items) == 0 {
		return nil, errors.New("at least one item required")
	}
	if len(distances) == 0 {
		distances = slices.Clone(DefaultDistances)
	}

	o := &options{workers: workersDefault}
	for _, opt := range opts {
		opt(o)
	}

	r := &Report{
		RunID:     uuid.NewString(),
		Distances: distances,
		Rows:      make([]*Row, len(items)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			row, err := Evaluate(item, distances)
			if err != nil {
				return errors.Wrapf(err, "item %d (%s)", i, item.Name)
			}
			slog.Debug("evaluated", "run", r.RunID, "item", item.Name, "n", row.Exponent)

			if o.observe != nil {
				o.observe(row)
			}
			r.Rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return r, nil
}
