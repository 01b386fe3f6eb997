package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipelineOnTick(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, "sk-test", "bd-test")
	driver := &manualDriver{}
	scheduler := NewScheduler(driver, f.pipeline, RunOptions{}, nil)

	require.NoError(t, scheduler.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(testNow)
	require.Equal(t, 1, f.delivery.calls)

	f.delivery.err = context.DeadlineExceeded
	driver.job(testNow.Add(24 * time.Hour))
	require.Equal(t, 2, f.delivery.calls)

	require.NoError(t, scheduler.Stop(context.Background()))
	require.True(t, driver.stopped)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	scheduler := NewScheduler(nil, nil, RunOptions{}, nil)
	require.NoError(t, scheduler.Start(context.Background()))
	require.NoError(t, scheduler.Stop(context.Background()))
}
