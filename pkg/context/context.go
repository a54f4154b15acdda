package context

import (
	"context"

	"boundedvote/pkg/config"
	"boundedvote/pkg/metrics"
)

// OperationContext carries the run configuration and metrics recorder
// through every protocol step, along with a cancellation context.
type OperationContext struct {
	context.Context
	Config   *config.Config
	Recorder *metrics.Recorder
}

// NewContext creates an OperationContext under context.Background.
func NewContext(config *config.Config, rec *metrics.Recorder) *OperationContext {
	return WithParent(context.Background(), config, rec)
}

// WithParent creates an OperationContext that is cancelled with parent.
func WithParent(parent context.Context, config *config.Config, rec *metrics.Recorder) *OperationContext {
	return &OperationContext{
		Context:  parent,
		Config:   config,
		Recorder: rec,
	}
}

// Cores is the configured worker count, at least 1.
func (c *OperationContext) Cores() int {
	if c == nil || c.Config == nil || c.Config.Cores < 1 {
		return 1
	}
	return c.Config.Cores
}
