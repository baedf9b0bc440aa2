package probegrid

import (
	"context"
	"fmt"
	"math"
)

// Stage names a cull pass
type Stage string

const (
	StageBoundary  Stage = "boundary"
	StageInterior  Stage = "interior"
	StageProximity Stage = "proximity"
	StageContrast  Stage = "contrast"
)

// CullResult is the outcome of one pass. The host decides from Removed
// whether anything needs to be redrawn.
type CullResult struct {
	Stage     Stage `json:"stage"`
	Removed   int   `json:"removed"`
	Remaining int   `json:"remaining"`
}

// Changed reports whether the pass removed anything
func (r CullResult) Changed() bool {
	return r.Removed > 0
}

// requireSet rejects a nil probe set
func requireSet(set *ProbeSet) error {
	if set == nil {
		return fmt.Errorf("%w: probe set is not initialized", ErrPreconditionViolation)
	}
	return nil
}

func requirePort(present bool, name string) error {
	if !present {
		return fmt.Errorf("%w: %s is not available", ErrPreconditionViolation, name)
	}
	return nil
}

func requireRadius(radius float64, name string) error {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return fmt.Errorf("%w: %s must be a positive number, got %v", ErrInvalidArgument, name, radius)
	}
	return nil
}

// pass drives the backward traversal shared by every culler. shouldRemove is
// called once per original point with that point's current index. Cancellation
// is only observed between points, so the set is consistent whenever pass returns.
func pass(ctx context.Context, stage Stage, set *ProbeSet, o *options, shouldRemove func(i int) bool) (CullResult, error) {
	total := set.Count()
	result := CullResult{Stage: stage, Remaining: total}
	if total == 0 {
		return result, nil
	}

	for i := total - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			result.Remaining = set.Count()
			o.logger.Printf("%s pass interrupted after %d/%d probes: %v", stage, total-1-i, total, err)
			return result, err
		}

		if shouldRemove(i) {
			set.RemoveAt(i)
			result.Removed++
		}
		o.report(stage, total-i, total)
	}

	result.Remaining = set.Count()
	o.logger.Printf("%s pass removed %d of %d probes", stage, result.Removed, total)
	return result, nil
}
