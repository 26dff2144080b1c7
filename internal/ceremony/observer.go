package ceremony

import "context"

// Observer receives the terminal outcome of a ceremony. The caller
// supplies it at construction; there is no other completion channel.
type Observer interface {
	OnSucceeded(ctx context.Context, result Result)
	OnFailed(ctx context.Context, failure Failure)
}

// NopObserver ignores every outcome.
type NopObserver struct{}

func (NopObserver) OnSucceeded(context.Context, Result) {}
func (NopObserver) OnFailed(context.Context, Failure)   {}
