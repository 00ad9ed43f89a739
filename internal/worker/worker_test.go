package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsTasks(t *testing.T) {
	wp := NewWorkerPool(2, zerolog.Nop())
	var ran atomic.Int32

	for range 10 {
		assert.True(t, wp.Submit(func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}))
	}
	wp.Submit(func(ctx context.Context) error { return errors.New("ignored") })
	wp.Shutdown()

	assert.Equal(t, int32(10), ran.Load())
}

func TestWorkerPool_DropsAfterShutdown(t *testing.T) {
	wp := NewWorkerPool(1, zerolog.Nop())
	wp.Shutdown()
	wp.Shutdown()

	assert.False(t, wp.Submit(func(ctx context.Context) error { return nil }))
}

func TestWorkerPool_SubmitRacingShutdown(t *testing.T) {
	for range 50 {
		wp := NewWorkerPool(2, zerolog.Nop())
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 20 {
					wp.Submit(func(ctx context.Context) error { return nil })
				}
			}()
		}
		assert.NotPanics(t, wp.Shutdown)
		wg.Wait()
		assert.False(t, wp.Submit(func(ctx context.Context) error { return nil }))
	}
}
