package zkp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralog "github.com/weisyn/zkvc/internal/infrastructure/log"
)

// ============================================================================
// worker_pool.go 测试
// ============================================================================

// TestWorkerPool_SubmitValid 测试线程池端到端处理有效证明
func TestWorkerPool_SubmitValid(t *testing.T) {
	prover := newTestProver(t)
	validator := newTestValidator(t)

	pool := NewWorkerPool(infralog.NewNop(), validator, 2, 4)
	pool.Start()
	defer pool.Stop()

	request, err := prover.GenerateRequest(context.Background(), "client-1", &productGenerator{X: 3, Y: 5})
	require.NoError(t, err)

	result, err := pool.Submit(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, result.Outcome)

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Processed)
	assert.Equal(t, int64(1), stats.Valid)
}

// TestWorkerPool_QueueFull 测试队列满时立即失败而非阻塞
func TestWorkerPool_QueueFull(t *testing.T) {
	validator := newTestValidator(t)

	// 不启动worker，队列容量1：第二次入队必然失败
	pool := NewWorkerPool(infralog.NewNop(), validator, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Submit(ctx, &ProofRequest{ClientID: "a"})
	require.ErrorIs(t, err, context.Canceled)

	_, err = pool.Submit(ctx, &ProofRequest{ClientID: "b"})
	require.ErrorIs(t, err, ErrQueueFull)
}

// TestWorkerPool_StopUnblocksSubmitters 测试停止后等待方被释放
func TestWorkerPool_StopUnblocksSubmitters(t *testing.T) {
	validator := newTestValidator(t)
	pool := NewWorkerPool(infralog.NewNop(), validator, 1, 2)

	done := make(chan error, 1)
	go func() {
		_, err := pool.Submit(context.Background(), &ProofRequest{ClientID: "a"})
		done <- err
	}()

	pool.Stop()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)
}

// TestWorkerPool_DefaultSizing 测试非法参数退化为安全默认值
func TestWorkerPool_DefaultSizing(t *testing.T) {
	pool := NewWorkerPool(infralog.NewNop(), newTestValidator(t), 0, 0)
	assert.Equal(t, 1, pool.workers)
	assert.Equal(t, 1, cap(pool.tasks))
}
