package zkp

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/weisyn/zkvc/pkg/interfaces/log"
)

// ============================================================================
// 验证工作线程池
// ============================================================================
//
// 🎯 **设计目的**：
// 证明验证是CPU密集操作。把验证任务分发到有界工作线程池，
// 一个慢证明不会阻塞新请求的接收。
//
// 🏗️ **实现策略**：
// - 固定数量的worker goroutine消费有界任务通道
// - 提交端在队列满时立即失败（ErrQueueFull），不阻塞接收循环
// - 结果通过每任务的结果通道回传，提交方用请求上下文等待
//
// ============================================================================

// verifyTask 一个入队的验证任务
type verifyTask struct {
	ctx      context.Context
	request  *ProofRequest
	resultCh chan *VerificationResult
}

// WorkerPool 验证工作线程池
type WorkerPool struct {
	logger    log.Logger
	validator *Validator

	workers int
	tasks   chan *verifyTask

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup

	// 统计信息
	processed atomic.Int64
	valid     atomic.Int64
	invalid   atomic.Int64
	failed    atomic.Int64
}

// PoolStats 线程池统计快照
type PoolStats struct {
	Processed int64
	Valid     int64
	Invalid   int64
	Failed    int64
}

// NewWorkerPool 创建验证工作线程池
//
// workers<=0 时退化为1个worker；queueSize<=0 时退化为workers大小的队列。
func NewWorkerPool(logger log.Logger, validator *Validator, workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers
	}
	return &WorkerPool{
		logger:    logger,
		validator: validator,
		workers:   workers,
		tasks:     make(chan *verifyTask, queueSize),
		stopCh:    make(chan struct{}),
	}
}

// Start 启动全部工作线程
func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.Infof("验证线程池已启动: workers=%d, queue=%d", p.workers, cap(p.tasks))
}

// Stop 停止线程池并等待在途任务完成
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
	p.logger.Info("验证线程池已停止")
}

// Submit 提交验证任务并等待结果
//
// 队列已满立即返回ErrQueueFull；上下文取消时放弃等待
// （任务可能仍被worker执行，其结果被丢弃）。
func (p *WorkerPool) Submit(ctx context.Context, request *ProofRequest) (*VerificationResult, error) {
	task := &verifyTask{
		ctx:      ctx,
		request:  request,
		resultCh: make(chan *VerificationResult, 1),
	}

	select {
	case p.tasks <- task:
	default:
		return nil, ErrQueueFull
	}

	select {
	case result := <-task.resultCh:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.stopCh:
		return nil, context.Canceled
	}
}

// Stats 返回统计快照
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Processed: p.processed.Load(),
		Valid:     p.valid.Load(),
		Invalid:   p.invalid.Load(),
		Failed:    p.failed.Load(),
	}
}

// run 工作线程主循环
func (p *WorkerPool) run(workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case task := <-p.tasks:
			p.process(workerID, task)
		}
	}
}

func (p *WorkerPool) process(workerID int, task *verifyTask) {
	result := p.validator.Process(task.ctx, task.request)

	p.processed.Add(1)
	switch result.Outcome {
	case OutcomeValid:
		p.valid.Add(1)
	case OutcomeInvalid:
		p.invalid.Add(1)
	default:
		p.failed.Add(1)
	}

	select {
	case task.resultCh <- result:
	default:
		// 提交方已放弃等待
		p.logger.Debugf("worker %d: 结果被丢弃, clientID=%s", workerID, task.request.ClientID)
	}
}
