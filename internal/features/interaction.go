package features

import (
	"context"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Interaction operators.
const (
	OpMult  = "mult"
	OpRatio = "ratio"
	OpDiff  = "diff"
)

// Pair names two canonical sensor columns; both are resolved through the
// schema mapping before lookup.
type Pair struct {
	A, B string
}

// DefaultInteractionPairs are the sensor pairs known to interact physically.
var DefaultInteractionPairs = []Pair{
	{"temperature", "pressure"},
	{"current", "voltage"},
	{"vibration", "rpm"},
	{"flow_rate", "pressure"},
}

// Interaction multiplies, divides and subtracts each configured pair whose
// columns are both present.
type Interaction struct {
	Pairs []Pair
}

// ID returns the stage identifier.
func (Interaction) ID() string { return StageInteraction }

// Name returns the stage name used in logs and errors.
func (Interaction) Name() string { return "Pairwise interactions" }

// Apply appends product and ratio columns for every pair present in t.
func (g Interaction) Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error) {
	var cols []*table.Column
	for _, p := range g.Pairs {
		a, b := env.Schema.Resolve(p.A), env.Schema.Resolve(p.B)
		xa, okA := t.Floats(a)
		xb, okB := t.Floats(b)
		if !okA || !okB || a == b {
			continue
		}

		mult := make([]float64, len(xa))
		ratio := make([]float64, len(xa))
		diff := make([]float64, len(xa))
		for i := range xa {
			mult[i] = xa[i] * xb[i]
			ratio[i] = xa[i] / (xb[i] + epsilon)
			diff[i] = xa[i] - xb[i]
		}
		cols = append(cols,
			table.NewFloatColumn(schema.InteractionName(a, b, OpMult), mult),
			table.NewFloatColumn(schema.InteractionName(a, b, OpRatio), ratio),
			table.NewFloatColumn(schema.InteractionName(a, b, OpDiff), diff),
		)
		env.logger().DebugContext(ctx, "created interaction features", "a", a, "b", b)
	}
	if len(cols) == 0 {
		return t, nil
	}
	return appendColumns(t, cols...)
}
