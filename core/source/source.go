// Package source defines producers of dispatch sensor updates.
package source

import (
	"context"

	"github.com/kilianp07/solischarge/core/model"
)

// Source delivers dispatch states until ctx is cancelled. Run returns nil on
// cancellation and a non-nil error when the source cannot continue.
type Source interface {
	Run(ctx context.Context, out chan<- model.DispatchState) error
}

// Deliver sends st on out unless ctx ends first.
func Deliver(ctx context.Context, out chan<- model.DispatchState, st model.DispatchState) bool {
	select {
	case out <- st:
		return true
	case <-ctx.Done():
		return false
	}
}
