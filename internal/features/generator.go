package features

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Stage identifiers in pipeline order.
const (
	StageTimeEncoding = "time_encoding"
	StageLag          = "lag"
	StageRolling      = "rolling"
	StageRate         = "rate_of_change"
	StageInteraction  = "interaction"
	StageCrossStats   = "cross_statistics"
	StageAnomaly      = "anomaly"
	StageDomain       = "domain"
)

// epsilon keeps ratio denominators away from zero.
const epsilon = 1e-8

// Env carries what a generator needs besides the table itself.
type Env struct {
	Schema *schema.Schema
	Data   config.DataConfig
	Logger *slog.Logger
	// Parallel bounds per-column concurrency; values below 1 mean 1.
	Parallel int
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e Env) parallel() int {
	if e.Parallel < 1 {
		return 1
	}
	return e.Parallel
}

// presentContinuous returns the resolved continuous columns that exist in t,
// in declaration order. Absent columns are skipped; a present column that is
// not numeric is a data format error.
func (e Env) presentContinuous(t *table.Table) ([]string, error) {
	var out []string
	for _, raw := range e.Schema.ContinuousColumns() {
		name := e.Schema.Resolve(raw)
		c, ok := t.Column(name)
		if !ok {
			continue
		}
		if !c.Kind().Numeric() {
			return nil, ferrors.NewDataFormatError(name, nil, "continuous column has %s values", c.Kind())
		}
		out = append(out, name)
	}
	return out, nil
}

// Generator is a single feature generation stage.
type Generator interface {
	// ID returns the unique stage identifier
	ID() string

	// Name returns the human-readable stage name
	Name() string

	// Apply returns a copy of t with the stage's columns appended
	Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error)
}

// Registry holds generators in registration order.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	order      []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
		order:      make([]string, 0),
	}
}

// NewDefaultRegistry returns a registry holding every stage in pipeline order.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, g := range []Generator{
		TimeEncoding{},
		Lag{},
		Rolling{},
		RateOfChange{},
		Interaction{Pairs: DefaultInteractionPairs},
		CrossStatistics{},
		Anomaly{},
		Domain{Recipes: DefaultRecipes},
	} {
		if err := r.Register(g); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a generator to the registry
func (r *Registry) Register(g Generator) error {
	if g == nil {
		return fmt.Errorf("cannot register nil generator")
	}

	id := g.ID()
	if id == "" {
		return fmt.Errorf("generator ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[id]; exists {
		return fmt.Errorf("generator with ID %s already registered", id)
	}

	r.generators[id] = g
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a generator by ID
func (r *Registry) Get(id string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.generators[id]
	if !exists {
		return nil, fmt.Errorf("generator with ID %s not found", id)
	}
	return g, nil
}

// Has checks if a generator is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.generators[id]
	return exists
}

// List returns all generators in registration order
func (r *Registry) List() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Generator, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.generators[id])
	}
	return out
}

// ListIDs returns all generator IDs in registration order
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered generators
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.generators)
}

// appendColumns returns a copy of t with cols added in order.
func appendColumns(t *table.Table, cols ...*table.Column) (*table.Table, error) {
	out := t.Clone()
	for _, c := range cols {
		if err := out.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// columnFunc computes the output columns for one input column.
type columnFunc func(name string, x []float64) []*table.Column

// forEachColumn runs fn for every named column of t concurrently and returns
// the outputs concatenated in the order of names.
func forEachColumn(ctx context.Context, env Env, t *table.Table, names []string, fn columnFunc) ([]*table.Column, error) {
	results := make([][]*table.Column, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(env.parallel())
	for i, name := range names {
		x, ok := t.Floats(name)
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(name, x)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*table.Column
	for _, cols := range results {
		out = append(out, cols...)
	}
	return out, nil
}
