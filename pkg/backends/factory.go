// Package backends turns engine output into serialized chunks and builds
// engine/backend pairs from a configuration record.
package backends

import (
	"slices"

	"pkg.jsn.cam/numgen/pkg/engines"
	"pkg.jsn.cam/numgen/pkg/numgen"
)

// Config selects an engine and a format, and the bounds the engine draws from.
type Config struct {
	Engine numgen.EngineID
	Format numgen.FormatID
	Min    int64
	Max    int64
}

var uintFormats = map[numgen.FormatID]int{
	numgen.FormatU8:  8,
	numgen.FormatU16: 16,
	numgen.FormatU32: 32,
	numgen.FormatU64: 64,
}

// IsValidFormat reports whether id names a known format.
func IsValidFormat(id numgen.FormatID) bool {
	_, ok := uintFormats[id]
	return ok || id == numgen.FormatText
}

// ListFormats returns the known format identifiers, sorted.
func ListFormats() []numgen.FormatID {
	ids := []numgen.FormatID{numgen.FormatText}
	for id := range uintFormats {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// BitWidth returns the encoded width of a fixed-width format, or 0 for text
// and unknown formats.
func BitWidth(id numgen.FormatID) int {
	return uintFormats[id]
}

// New constructs exactly one engine and one backend bound to it. Neither is
// constructed when either identifier is unknown.
func New(cfg Config) (numgen.Backend, error) {
	bits, isUint := uintFormats[cfg.Format]
	if !isUint && cfg.Format != numgen.FormatText {
		return nil, numgen.ConfigError(numgen.ErrUnknownFormat, "format %q", cfg.Format)
	}

	engine, err := engines.New(cfg.Engine, cfg.Min, cfg.Max)
	if err != nil {
		return nil, err
	}

	if isUint {
		return NewUint(bits, engine)
	}
	return NewText(engine), nil
}

// CheckBounds verifies that the backend can encode every value in [min, max].
func CheckBounds(b numgen.Backend, min, max int64) error {
	if min < b.Min() {
		return numgen.ConfigError(numgen.ErrMinOutOfRange,
			"the selected engine and format are limited to a minimum value of %d, got %d", b.Min(), min)
	}
	if max > b.Max() {
		return numgen.ConfigError(numgen.ErrMaxOutOfRange,
			"the selected engine and format are limited to a maximum value of %d, got %d", b.Max(), max)
	}
	return nil
}

// Open builds a backend with New and verifies its bounds with CheckBounds.
func Open(cfg Config) (numgen.Backend, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := CheckBounds(b, cfg.Min, cfg.Max); err != nil {
		return nil, err
	}
	return b, nil
}
