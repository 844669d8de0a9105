// Package engines holds the randomness sources available to backends.
package engines

import (
	"slices"

	"pkg.jsn.cam/numgen/pkg/numgen"
)

// Constructor builds an engine bound to [min, max].
type Constructor func(min, max int64) (numgen.Engine, error)

var Engines = map[numgen.EngineID]Constructor{
	numgen.EngineMathRandom: func(min, max int64) (numgen.Engine, error) {
		e, err := NewMathRandom(min, max)
		if err != nil {
			return nil, err
		}
		return e, nil
	},
	numgen.EngineCryptoRandom: func(min, max int64) (numgen.Engine, error) {
		return NewCryptoRandom(min, max), nil
	},
}

func IsValidEngine(id numgen.EngineID) bool {
	_, exists := Engines[id]
	return exists
}

// New builds the engine registered under id.
func New(id numgen.EngineID, min, max int64) (numgen.Engine, error) {
	ctor, exists := Engines[id]
	if !exists {
		return nil, numgen.ConfigError(numgen.ErrUnknownEngine, "engine %q", id)
	}
	return ctor(min, max)
}

// ListEngines returns the registered engine identifiers, sorted.
func ListEngines() []numgen.EngineID {
	var ids []numgen.EngineID
	for id := range Engines {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
