package guard

import (
	"context"
	"fmt"
)

// Stage is one inspection layer's analysis bound to its inputs for a
// single turn. The orchestrator wraps every call in FailSecure so a
// broken detector blocks instead of waving traffic through.
type Stage func(ctx context.Context) (ClassifierResult, error)

// FailSecure runs a stage and converts any returned error or panic into
// a maximum-threat blocking result carrying the stage's layer number and
// OWASP tag.
func FailSecure(ctx context.Context, layer int, tag string, stage Stage) ClassifierResult {
	result, err := func() (r ClassifierResult, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		return stage(ctx)
	}()
	if err != nil {
		return FailClosed(layer, tag, err)
	}
	return result
}

// ActionFor maps a stage verdict to its event action. Layers 1, 2 and 4
// block the turn outright, layer 3 quarantines poisoned memory, layer 5
// flags generated output.
func ActionFor(layer int, passed bool) string {
	if passed {
		return ActionPassed
	}
	switch layer {
	case LayerMemory:
		return ActionQuarantined
	case LayerOutput:
		return ActionFlagged
	default:
		return ActionBlocked
	}
}
