package async

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ctxKey struct{}

func TestQueueRunsTasksAndDrainsOnClose(t *testing.T) {
	q := NewQueue(zap.NewNop(), Config{Workers: 2, BufferSize: 4})

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		q.Submit(context.Background(), func(ctx context.Context) {
			ran.Add(1)
		})
	}

	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, int32(10), ran.Load())
}

func TestQueueDetachesCancellationButKeepsValues(t *testing.T) {
	q := NewQueue(zap.NewNop(), Config{Workers: 1, BufferSize: 1})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	cancel()

	var sawValue atomic.Value
	var sawErr atomic.Value
	q.Submit(ctx, func(taskCtx context.Context) {
		sawValue.Store(taskCtx.Value(ctxKey{}))
		sawErr.Store(taskCtx.Err() == nil)
	})

	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, "req-1", sawValue.Load())
	assert.Equal(t, true, sawErr.Load())
}

func TestQueueRecoversPanicsAndRunsInlineAfterClose(t *testing.T) {
	q := NewQueue(zap.NewNop(), Config{Workers: 1})

	q.Submit(context.Background(), func(ctx context.Context) {
		panic("boom")
	})
	require.NoError(t, q.Close(context.Background()))

	ran := false
	q.Submit(context.Background(), func(ctx context.Context) {
		ran = true
	})
	assert.True(t, ran)
	assert.NoError(t, q.Close(context.Background()))
}
