// Package reconcile folds the outcome stream of a removal request back into
// the live inventory.
package reconcile

import (
	"context"

	"github.com/conn-castle/pkgtrim/internal/classify"
	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/removal"
)

// Failure is one path that could not be removed.
type Failure struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

// Summary describes the result of one removal request.
type Summary struct {
	Requested    int       `json:"requested" yaml:"requested"`
	Processed    int       `json:"processed" yaml:"processed"`
	SuccessCount int       `json:"success_count" yaml:"success_count"`
	SuccessSize  int64     `json:"success_size" yaml:"success_size"`
	FailureCount int       `json:"failure_count" yaml:"failure_count"`
	FailureSize  int64     `json:"failure_size" yaml:"failure_size"`
	Failures     []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Reconciler applies removal outcomes to an inventory and re-runs the
// classifier once the request has completed.
type Reconciler struct {
	Classifier classify.Classifier
	Index      classify.InstalledIndex
	Policy     classify.Policy
}

// Apply consumes stream in order. Each success removes the artifact from inv;
// each failure leaves it in place, still marked. Once requested events were
// seen or the event channel closed, the outcome is read and inv is
// reclassified. observe, when set, is called after each event is applied.
//
// An authorization error returns an empty Summary and leaves inv untouched.
func (r Reconciler) Apply(ctx context.Context, inv *inventory.Inventory, requested int, stream *removal.Stream, observe func(removal.Event)) (Summary, error) {
	summary := Summary{Requested: requested}
	applied := 0

	events := stream.Events
	for events != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.applyEvent(inv, &summary, ev)
			applied++
			if observe != nil {
				observe(ev)
			}
			if applied == requested {
				events = nil
			}
		case <-ctx.Done():
			return summary, ctx.Err()
		}
	}

	var outcome removal.Outcome
	select {
	case outcome = <-stream.Done:
	case <-ctx.Done():
		return summary, ctx.Err()
	}

	if outcome.Err != nil && removal.IsAuthorizationError(outcome.Err) {
		return Summary{Requested: requested}, outcome.Err
	}
	summary.Processed = outcome.Processed
	if outcome.Err == nil || applied > 0 {
		r.Classifier.Classify(inv, r.Index, r.Policy)
	}
	return summary, outcome.Err
}

func (r Reconciler) applyEvent(inv *inventory.Inventory, summary *Summary, ev removal.Event) {
	switch ev.Kind {
	case removal.Succeeded:
		removed, _ := inv.Remove(ev.Path)
		summary.SuccessCount++
		summary.SuccessSize += removed.Size
	case removal.Failed:
		artifact, _ := inv.Find(ev.Path)
		summary.FailureCount++
		summary.FailureSize += artifact.Size
		summary.Failures = append(summary.Failures, Failure{Path: ev.Path, Message: ev.Message})
	}
}
