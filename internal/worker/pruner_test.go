package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePruner struct {
	calls   atomic.Int32
	removed int64
	err     error
}

func (f *fakePruner) Prune(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.removed, f.err
}

func TestRunOnce(t *testing.T) {
	p := &fakePruner{removed: 3}
	w := NewPruneWorker(p, time.Minute, nil)

	assert.Equal(t, int64(3), w.RunOnce(context.Background()))
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestRunOnce_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := &fakePruner{err: errors.New("storage down")}
	w := NewPruneWorker(p, time.Minute, zap.New(core))

	assert.Zero(t, w.RunOnce(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("nonce prune failed").Len())
}

func TestRunOnce_CancelledContextIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := &fakePruner{err: context.Canceled}
	w := NewPruneWorker(p, time.Minute, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Zero(t, w.RunOnce(ctx))
	assert.Equal(t, 0, logs.FilterMessage("nonce prune failed").Len())
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	p := &fakePruner{}
	w := NewPruneWorker(p, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRun_Disabled(t *testing.T) {
	p := &fakePruner{}
	w := NewPruneWorker(p, 0, nil)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker should return immediately")
	}
	assert.Zero(t, p.calls.Load())
}
