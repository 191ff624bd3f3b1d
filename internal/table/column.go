package table

import (
	"math"
	"time"
)

// Kind is the storage type of a column.
type Kind int

const (
	// KindFloat stores float64 values; NaN is missing.
	KindFloat Kind = iota
	// KindBool stores 0 or 1 as float64; NaN is missing.
	KindBool
	// KindTime stores time.Time values; the zero time is missing.
	KindTime
	// KindText stores strings; the empty string is missing.
	KindText
)

// String implements fmt.Stringer
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Numeric reports whether the column is stored as float64.
func (k Kind) Numeric() bool {
	return k == KindFloat || k == KindBool
}

// Column is a named, typed, immutable series of values.
// Slices handed to or returned from a Column must not be modified.
type Column struct {
	name   string
	kind   Kind
	floats []float64
	times  []time.Time
	texts  []string
}

// NewFloatColumn creates a float column.
func NewFloatColumn(name string, values []float64) *Column {
	return &Column{name: name, kind: KindFloat, floats: values}
}

// NewBoolColumn creates a bool column from 0/1 values, NaN meaning missing.
// Any non-zero, non-NaN value is stored as 1.
func NewBoolColumn(name string, values []float64) *Column {
	out := make([]float64, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case v != 0:
			out[i] = 1
		}
	}
	return &Column{name: name, kind: KindBool, floats: out}
}

// NewTimeColumn creates a time column.
func NewTimeColumn(name string, values []time.Time) *Column {
	return &Column{name: name, kind: KindTime, times: values}
}

// NewTextColumn creates a text column.
func NewTextColumn(name string, values []string) *Column {
	return &Column{name: name, kind: KindText, texts: values}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of values.
func (c *Column) Len() int {
	switch c.kind {
	case KindTime:
		return len(c.times)
	case KindText:
		return len(c.texts)
	default:
		return len(c.floats)
	}
}

// Floats returns the values of a float or bool column, nil otherwise.
func (c *Column) Floats() []float64 {
	if !c.kind.Numeric() {
		return nil
	}
	return c.floats
}

// Times returns the values of a time column, nil otherwise.
func (c *Column) Times() []time.Time {
	if c.kind != KindTime {
		return nil
	}
	return c.times
}

// Texts returns the values of a text column, nil otherwise.
func (c *Column) Texts() []string {
	if c.kind != KindText {
		return nil
	}
	return c.texts
}

// IsMissing reports whether row i holds no value.
func (c *Column) IsMissing(i int) bool {
	switch c.kind {
	case KindTime:
		return c.times[i].IsZero()
	case KindText:
		return c.texts[i] == ""
	default:
		return math.IsNaN(c.floats[i])
	}
}

// Value returns row i as an interface value; missing rows return nil.
func (c *Column) Value(i int) any {
	if c.IsMissing(i) {
		return nil
	}
	switch c.kind {
	case KindBool:
		return c.floats[i] == 1
	case KindTime:
		return c.times[i]
	case KindText:
		return c.texts[i]
	default:
		return c.floats[i]
	}
}

// renamed returns a copy of c sharing its storage.
func (c *Column) renamed(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// filter returns a new column holding the rows where keep is true.
func (c *Column) filter(keep []bool, n int) *Column {
	cp := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case KindTime:
		cp.times = make([]time.Time, 0, n)
		for i, k := range keep {
			if k {
				cp.times = append(cp.times, c.times[i])
			}
		}
	case KindText:
		cp.texts = make([]string, 0, n)
		for i, k := range keep {
			if k {
				cp.texts = append(cp.texts, c.texts[i])
			}
		}
	default:
		cp.floats = make([]float64, 0, n)
		for i, k := range keep {
			if k {
				cp.floats = append(cp.floats, c.floats[i])
			}
		}
	}
	return cp
}

// Equal reports whether two columns have the same name, kind and values.
// Missing values compare equal to each other.
func (c *Column) Equal(o *Column) bool {
	if c.name != o.name || c.kind != o.kind || c.Len() != o.Len() {
		return false
	}
	for i := 0; i < c.Len(); i++ {
		am, bm := c.IsMissing(i), o.IsMissing(i)
		if am != bm {
			return false
		}
		if am {
			continue
		}
		switch c.kind {
		case KindTime:
			if !c.times[i].Equal(o.times[i]) {
				return false
			}
		case KindText:
			if c.texts[i] != o.texts[i] {
				return false
			}
		default:
			if c.floats[i] != o.floats[i] {
				return false
			}
		}
	}
	return true
}
