package lut

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/kula-app/sigmoid-lut/internal/config"
)

var (
	// ErrNonFinite is returned when the logistic computation yields NaN or Inf
	ErrNonFinite = errors.New("non-finite sigmoid value")

	// ErrOutOfRange is returned when a quantized value falls outside [0, scale]
	ErrOutOfRange = errors.New("quantized value out of range")
)

// Table is a generated lookup table of quantized sigmoid values, indexed by input code
type Table struct {
	values []uint32
	config config.Config
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.values)
}

// At returns the quantized value for input code i
func (t *Table) At(i int) uint32 {
	return t.values[i]
}

// Values returns a copy of all entries in index order
func (t *Table) Values() []uint32 {
	out := make([]uint32, len(t.values))
	copy(out, t.values)
	return out
}

// Config returns the configuration the table was generated from
func (t *Table) Config() config.Config {
	return t.config
}

// Generator computes sigmoid lookup tables
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a new generator
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{
		logger: logger,
	}
}

// Generate computes one quantized sigmoid value per index in [0, Size-1]
func (g *Generator) Generate(cfg *config.Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g.logger.Debug("starting table generation",
		"size", cfg.Size,
		"domain_min", cfg.DomainMin,
		"domain_max", cfg.DomainMax,
		"scale", cfg.Scale)

	values := make([]uint32, cfg.Size)
	for i := range values {
		x := Normalize(i, cfg.Size, cfg.DomainMin, cfg.DomainMax)
		v, err := Quantize(Sigmoid(x), cfg.Scale)
		if err != nil {
			return nil, fmt.Errorf("index %d (x=%v): %w", i, x, err)
		}
		values[i] = v
	}

	mid := len(values) / 2
	g.logger.Debug("table generated",
		"entries", len(values),
		"first", values[0],
		"midpoint_index", mid,
		"midpoint", values[mid],
		"last", values[len(values)-1])

	return &Table{
		values: values,
		config: *cfg,
	}, nil
}

// Normalize maps index i of an n-entry table linearly onto [lo, hi].
// Index 0 maps to lo and index n-1 maps to hi.
func Normalize(i, n int, lo, hi float64) float64 {
	frac := float64(i) / float64(n-1)
	// The explicit conversion rounds the product so it is never fused into an FMA.
	return float64(frac*(hi-lo)) + lo
}

// Sigmoid is the logistic function 1 / (1 + e^-x)
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Quantize scales s by scale and rounds to the nearest integer, ties to even
func Quantize(s float64, scale int) (uint32, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, ErrNonFinite
	}

	scaled := math.RoundToEven(s * float64(scale))
	if scaled < 0 || scaled > float64(scale) {
		return 0, fmt.Errorf("%w: %v not in [0, %d]", ErrOutOfRange, scaled, scale)
	}

	return uint32(scaled), nil
}
