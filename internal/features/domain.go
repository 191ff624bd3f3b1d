package features

import (
	"context"
	"math"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// trendWindow is the sample count of the vibration trend regression.
const trendWindow = 10

// Recipe derives one domain feature from canonical sensor columns. Inputs
// are resolved through the schema mapping; the recipe is skipped unless all
// of them are present.
type Recipe struct {
	Name    string
	Inputs  []string
	Compute func(in [][]float64) []float64
}

// DefaultRecipes are the predictive maintenance features derived from
// electrical, thermal, vibration and hydraulic sensors.
var DefaultRecipes = []Recipe{
	{Name: "power", Inputs: []string{"current", "voltage"}, Compute: func(in [][]float64) []float64 {
		return elementwise(in[0], func(i int, c float64) float64 { return c * in[1][i] })
	}},
	{Name: "power_factor", Inputs: []string{"current", "voltage"}, Compute: func(in [][]float64) []float64 {
		return elementwise(in[0], func(i int, c float64) float64 {
			p := c * in[1][i]
			return p / (p + epsilon)
		})
	}},
	{Name: "temp_efficiency", Inputs: []string{"temperature"}, Compute: func(in [][]float64) []float64 {
		return elementwise(in[0], func(_ int, v float64) float64 { return 1 / (v + epsilon) })
	}},
	{Name: "temp_stress", Inputs: []string{"temperature"}, Compute: func(in [][]float64) []float64 {
		median := Percentile(in[0], 50)
		return elementwise(in[0], func(_ int, v float64) float64 {
			if math.IsNaN(v) {
				return v
			}
			return math.Max(0, v-median)
		})
	}},
	{Name: "vibration_health", Inputs: []string{"vibration"}, Compute: func(in [][]float64) []float64 {
		p95 := Percentile(in[0], 95)
		return elementwise(in[0], func(_ int, v float64) float64 { return 1 - v/(p95+epsilon) })
	}},
	{Name: "vibration_trend", Inputs: []string{"vibration"}, Compute: func(in [][]float64) []float64 {
		return Trend(in[0], trendWindow)
	}},
	{Name: "flow_efficiency", Inputs: []string{"flow_rate", "pressure"}, Compute: func(in [][]float64) []float64 {
		return elementwise(in[0], func(i int, f float64) float64 { return f / (in[1][i] + epsilon) })
	}},
	{Name: "hydraulic_power", Inputs: []string{"flow_rate", "pressure"}, Compute: func(in [][]float64) []float64 {
		return elementwise(in[0], func(i int, f float64) float64 { return f * in[1][i] })
	}},
}

// DomainFeatureNames returns the names produced by DefaultRecipes.
func DomainFeatureNames() []string {
	names := make([]string, len(DefaultRecipes))
	for i, r := range DefaultRecipes {
		names[i] = r.Name
	}
	return names
}

// Trend is the least-squares slope over each trailing window of x. Rows
// whose window is incomplete or holds a missing value are missing.
func Trend(x []float64, window int) []float64 {
	out := nanSeries(len(x))
	for i := window - 1; i < len(x); i++ {
		w := x[i-window+1 : i+1]
		if len(valid(w)) < window {
			continue
		}
		out[i] = Slope(w)
	}
	return out
}

func elementwise(x []float64, fn func(i int, v float64) float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = fn(i, v)
	}
	return out
}

// Domain applies a table of domain recipes.
type Domain struct {
	Recipes []Recipe
}

// ID returns the stage identifier.
func (Domain) ID() string { return StageDomain }

// Name returns the stage name used in logs and errors.
func (Domain) Name() string { return "Domain-derived features" }

// Apply evaluates every recipe whose inputs are all present.
func (g Domain) Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error) {
	var cols []*table.Column
	for _, r := range g.Recipes {
		in := make([][]float64, 0, len(r.Inputs))
		for _, canonical := range r.Inputs {
			x, ok := t.Floats(env.Schema.Resolve(canonical))
			if !ok {
				break
			}
			in = append(in, x)
		}
		if len(in) != len(r.Inputs) {
			continue
		}
		cols = append(cols, table.NewFloatColumn(r.Name, r.Compute(in)))
		env.logger().DebugContext(ctx, "created domain feature", "feature", r.Name)
	}
	if len(cols) == 0 {
		return t, nil
	}
	return appendColumns(t, cols...)
}
