package framework

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopRunsStagesInOrder(t *testing.T) {
	var order []string
	record := func(name string) Controller {
		return ControlFunc(func(cc ControlContext) error {
			order = append(order, name)
			return nil
		})
	}

	loop := NewLoop()
	loop.Interval = time.Millisecond
	loop.At(StageReport, record("report"))
	loop.At(StageSample, record("sample"))
	loop.At(StageControl, record("control"))

	done := make(chan struct{}, 1)
	loop.At(StageReport, ControlFunc(func(cc ControlContext) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	<-done
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.Equal(t, []string{"sample", "control", "report"}, order[:3])
}

func TestLoopTriggerNext(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Hour // never ticks on its own

	ticks := make(chan struct{}, 4)
	loop.At(StageSample, ControlFunc(func(cc ControlContext) error {
		ticks <- struct{}{}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	for i := 0; i < 3; i++ {
		loop.TriggerNext()
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatal("iteration not triggered")
		}
	}
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())
	errs.Add(nil, context.DeadlineExceeded)
	err := errs.Aggregate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "deadline")
}
