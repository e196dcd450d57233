// Package writequeue provides Per-Note Write Queue implementation
// Package writequeue 提供 Per-Note Write Queue 实现
// Used to serialize write operations on the same note so concurrent commits and
// roster updates are applied in FIFO order, and to avoid SQLite "database is locked"
// 用于串行化同一笔记的写操作，使并发提交和协作者更新按 FIFO 顺序落库，
// 同时避免 SQLite "database is locked" 问题
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Error definitions
// 错误定义
var (
	// ErrWriteQueueFull returned when a note's write queue is full
	// ErrWriteQueueFull 当笔记写队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed returned when write queue manager is closed
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when write operation timeout
	// ErrWriteTimeout 当写操作超时时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-note queue capacity, default 100
	// QueueCapacity 每笔记队列容量，默认 100
	QueueCapacity int
	// WriteTimeout write operation timeout, default 30 seconds
	// WriteTimeout 写操作超时时间，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout idle cleanup timeout, default 10 minutes
	// IdleTimeout 空闲清理超时时间，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

// writeOp write operation
// writeOp 写操作
type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

// noteWriteQueue single note write queue
// noteWriteQueue 单笔记写队列
type noteWriteQueue struct {
	key      string
	ch       chan writeOp
	lastUsed atomic.Int64
	closed   atomic.Bool
	workerWg sync.WaitGroup

	// Used to notify worker to stop
	// 用于通知 worker 停止
	stopCh chan struct{}
}

// Manager manages write queues for all notes
// Manager 管理所有笔记的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	queues sync.Map // map[string]*noteWriteQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	// Cleanup goroutine control
	// 清理 goroutine 控制
	cleanupWg   sync.WaitGroup
	cleanupDone chan struct{}
}

// New creates write queue manager
// New 创建写队列管理器
// cfg: configuration, if nil use default configuration
// cfg: 配置，如果为 nil 则使用默认配置
// logger: zap logger, if nil use nop logger
// logger: zap 日志器，如果为 nil 则使用 nop logger
func New(cfg *Config, logger *zap.Logger) *Manager {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	// Apply default values
	// 应用默认值
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 100
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:      *cfg,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		closed:      false,
		cleanupDone: make(chan struct{}),
	}

	// Start idle queue cleanup goroutine
	// 启动空闲队列清理 goroutine
	m.cleanupWg.Add(1)
	go m.cleanupIdleQueues()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", cfg.QueueCapacity),
		zap.Duration("writeTimeout", cfg.WriteTimeout),
		zap.Duration("idleTimeout", cfg.IdleTimeout))

	return m
}

// Execute executes write operation
// Write operations against the same key are executed serially in FIFO order
// Execute 执行写操作
// 相同 key 的写操作会被串行化执行，按 FIFO 顺序处理
func (m *Manager) Execute(ctx context.Context, key string, fn func() error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrWriteQueueClosed
	}
	m.mu.RUnlock()

	// Get or create note queue
	// 获取或创建笔记队列
	queue := m.getOrCreateQueue(key)
	if queue == nil {
		return ErrWriteQueueClosed
	}

	// Create write operation
	// 创建写操作
	result := make(chan error, 1)
	op := writeOp{
		ctx:    ctx,
		fn:     fn,
		result: result,
	}

	// Try submitting to queue
	// 尝试提交到队列
	select {
	case queue.ch <- op:
		// Operation submitted
		// 操作已提交
	default:
		// Queue full
		// 队列已满
		return ErrWriteQueueFull
	}

	// Wait for result or timeout
	// 等待结果或超时
	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < timeout {
			timeout = remaining
		}
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return ErrWriteTimeout
	case <-m.ctx.Done():
		return ErrWriteQueueClosed
	}
}

// getOrCreateQueue gets or creates note write queue (lazy loading)
// getOrCreateQueue 获取或创建笔记写队列（懒加载）
func (m *Manager) getOrCreateQueue(key string) *noteWriteQueue {
	// Try to get existing queue first
	// 先尝试获取已存在的队列
	if v, ok := m.queues.Load(key); ok {
		queue := v.(*noteWriteQueue)
		if !queue.closed.Load() {
			queue.lastUsed.Store(time.Now().UnixNano())
			return queue
		}
	}

	// Check if already closed
	// 检查是否已关闭
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()

	// Create new queue
	// 创建新队列
	queue := &noteWriteQueue{
		key:    key,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
	}
	queue.lastUsed.Store(time.Now().UnixNano())

	// Use LoadOrStore to ensure only one queue is created
	// 使用 LoadOrStore 确保只有一个队列被创建
	actual, loaded := m.queues.LoadOrStore(key, queue)
	if loaded {
		// Existing queue, close new one
		// 已存在队列，关闭新创建的
		close(queue.stopCh)
		existingQueue := actual.(*noteWriteQueue)
		if !existingQueue.closed.Load() {
			existingQueue.lastUsed.Store(time.Now().UnixNano())
			return existingQueue
		}
		// Existing queue is closed, need to replace
		// 已存在的队列已关闭，需要替换
		m.queues.Store(key, queue)
	}

	// Start worker goroutine (lazy loading)
	// 启动 worker goroutine（懒加载）
	queue.workerWg.Add(1)
	go m.worker(queue)

	m.logger.Debug("created write queue for note",
		zap.String("key", key),
		zap.Int("capacity", m.config.QueueCapacity))

	return queue
}

// worker worker goroutine handling single note write queue
// worker 处理单笔记写队列的 worker goroutine
func (m *Manager) worker(queue *noteWriteQueue) {
	defer queue.workerWg.Done()
	defer func() {
		queue.closed.Store(true)
		m.logger.Debug("write queue worker stopped",
			zap.String("key", queue.key))
	}()

	for {
		select {
		case <-m.ctx.Done():
			// Manager closed, handle remaining operations
			// 管理器关闭，处理剩余操作
			m.drainQueue(queue)
			return
		case <-queue.stopCh:
			// Queue stopped
			// 队列被停止
			m.drainQueue(queue)
			return
		case op, ok := <-queue.ch:
			if !ok {
				return
			}
			m.executeOp(queue, op)
		}
	}
}

// executeOp executes single write operation
// executeOp 执行单个写操作
func (m *Manager) executeOp(queue *noteWriteQueue, op writeOp) {
	queue.lastUsed.Store(time.Now().UnixNano())

	// Check if context is cancelled
	// 检查 context 是否已取消
	select {
	case <-op.ctx.Done():
		op.result <- op.ctx.Err()
		return
	default:
	}

	// Execute write operation
	// 执行写操作
	err := op.fn()

	// Send result
	// 发送结果
	select {
	case op.result <- err:
	default:
		// result channel is closed or full
		// result channel 已关闭或已满
	}
}

// drainQueue drains remaining operations in queue
// drainQueue 排空队列中的剩余操作
func (m *Manager) drainQueue(queue *noteWriteQueue) {
	for {
		select {
		case op, ok := <-queue.ch:
			if !ok {
				return
			}
			m.executeOp(queue, op)
		default:
			return
		}
	}
}

// cleanupIdleQueues regularly cleans up idle queues
// cleanupIdleQueues 定期清理空闲队列
func (m *Manager) cleanupIdleQueues() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.cleanupDone:
			return
		case <-ticker.C:
			m.doCleanup()
		}
	}
}

// doCleanup performs one cleanup
// doCleanup 执行一次清理
func (m *Manager) doCleanup() {
	now := time.Now().UnixNano()
	idleThreshold := m.config.IdleTimeout.Nanoseconds()

	m.queues.Range(func(key, value interface{}) bool {
		k := key.(string)
		queue := value.(*noteWriteQueue)

		// Check if idle timeout
		// 检查是否空闲超时
		lastUsed := queue.lastUsed.Load()
		if now-lastUsed > idleThreshold {
			// Check if queue is empty
			// 检查队列是否为空
			if len(queue.ch) == 0 && !queue.closed.Load() {
				m.logger.Debug("cleaning up idle write queue",
					zap.String("key", k),
					zap.Duration("idleTime", time.Duration(now-lastUsed)))

				// Mark closed and notify worker to stop
				// 标记关闭并通知 worker 停止
				queue.closed.Store(true)
				close(queue.stopCh)

				// Delete from map
				// 从 map 中删除
				m.queues.Delete(k)
			}
		}
		return true
	})
}

// QueueCount returns the number of live queues
// QueueCount 返回当前存活的队列数量
func (m *Manager) QueueCount() int {
	count := 0
	m.queues.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// Shutdown closes write queue manager, waits for all operations to complete
// ctx is used to control shutdown timeout
// Shutdown 关闭写队列管理器，等待所有操作完成
// ctx 用于控制关闭超时
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")

	// Stop cleanup goroutine
	// 停止清理 goroutine
	close(m.cleanupDone)

	// Cancel manager context so workers drain and exit
	// 取消管理器 context，worker 排空后退出
	m.cancel()

	// Wait for all workers to complete
	// 等待所有 worker 完成
	done := make(chan struct{})
	go func() {
		m.queues.Range(func(_, value interface{}) bool {
			queue := value.(*noteWriteQueue)
			queue.workerWg.Wait()
			return true
		})
		m.cleanupWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout")
		return ctx.Err()
	}
}
