package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Controller is one unit of per-iteration device logic.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// TimeSource provides the time for controlling logic. Controllers
// must use it instead of time.Now so tests can drive them with a
// simulated clock.
type TimeSource interface {
	Time() time.Time
}

// ControlContext is the context of one loop iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// TriggerNext schedules the next iteration immediately after
	// the current one, without waiting for the tick.
	TriggerNext()
}

// Stages of one loop iteration, run in order. Sampling observes the
// world before anything exchanges or reports it.
const (
	StageSample int = iota
	StageControl
	StageReport

	StageCount
)

// LoopAdder provides specific logic to add components to a loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}
