package verify

import (
	"context"
	"fmt"

	"github.com/jasmere27/verifact/api/internal/tools"
)

// Task is one reasoning-engine invocation: the fixed instruction contract,
// the normalized input, and the capability set the engine may call.
type Task struct {
	Instructions string
	Input        NormalizedInput
	Tools        *tools.Set
}

// Engine drives one external reasoning engine. Analyze returns the raw
// model output; parsing and schema enforcement happen in the validator.
type Engine interface {
	Name() string
	GetModel() string
	Analyze(ctx context.Context, task Task) (string, error)
}

// Engines is the registry of configured reasoning engines.
type Engines struct {
	Gemini Engine
	OpenAI Engine
}

// Get resolves an engine by caller-supplied name; empty picks the default
// (gemini, falling back to whatever is configured).
func (e *Engines) Get(name string) (Engine, error) {
	switch name {
	case "":
		if e.Gemini != nil {
			return e.Gemini, nil
		}
		if e.OpenAI != nil {
			return e.OpenAI, nil
		}
		return nil, fmt.Errorf("%w: none configured", ErrUnknownEngine)
	case "gemini":
		if e.Gemini == nil {
			return nil, fmt.Errorf("%w: gemini is not configured", ErrUnknownEngine)
		}
		return e.Gemini, nil
	case "gpt":
		if e.OpenAI == nil {
			return nil, fmt.Errorf("%w: gpt is not configured", ErrUnknownEngine)
		}
		return e.OpenAI, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}
