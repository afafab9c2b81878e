package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/clearrule/policy-control-plane/services/quota"
	"go.uber.org/zap"
)

// LogEntry is one execution outcome queued for durable recording
type LogEntry struct {
	Execution *models.Execution
}

// Logger durably records execution outcomes and increments the usage
// counter, asynchronously and off the request's critical path. Failures are
// reported to the operational log, never to the caller: by the time a log
// entry runs, the user-visible outcome is already finalized.
type Logger struct {
	executions  repositories.ExecutionRepository
	counter     *quota.Counter
	logger      *zap.Logger
	eventChan   chan *LogEntry
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// LoggerConfig holds configuration for the execution logger
type LoggerConfig struct {
	BufferSize  int // Size of the entry buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultLoggerConfig returns the default configuration
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewLogger creates a new execution logger
func NewLogger(executions repositories.ExecutionRepository, counter *quota.Counter, logger *zap.Logger, config LoggerConfig) *Logger {
	ctx, cancel := context.WithCancel(context.Background())

	return &Logger{
		executions:  executions,
		counter:     counter,
		logger:      logger,
		eventChan:   make(chan *LogEntry, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (l *Logger) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return fmt.Errorf("execution logger already started")
	}

	for i := 0; i < l.workerCount; i++ {
		l.wg.Add(1)
		go l.worker(i)
	}

	l.started = true
	l.logger.Info("started execution logger",
		zap.Int("worker_count", l.workerCount),
		zap.Int("buffer_size", l.bufferSize))

	return nil
}

// Stop gracefully stops the logger, waiting for pending entries to drain
func (l *Logger) Stop(timeout time.Duration) error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return fmt.Errorf("execution logger not started")
	}
	l.mu.Unlock()

	l.logger.Info("stopping execution logger", zap.Int("pending_entries", len(l.eventChan)))

	close(l.eventChan)

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("execution logger stopped gracefully")
		l.cancel()
		return nil
	case <-time.After(timeout):
		l.cancel()
		return fmt.Errorf("execution logger stop timeout after %v", timeout)
	}
}

// Log queues an execution outcome without blocking. When the buffer is
// full the entry is dropped with a warning; the execution response has
// already been sent and must not fail on logging backpressure.
func (l *Logger) Log(entry *LogEntry) error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return fmt.Errorf("execution logger not started")
	}
	l.mu.Unlock()

	select {
	case l.eventChan <- entry:
		return nil
	default:
		l.logger.Warn("execution log channel full, dropping entry",
			zap.String("execution_id", entry.Execution.ID.String()),
			zap.String("policy_id", entry.Execution.PolicyID.String()))
		return fmt.Errorf("execution log buffer full")
	}
}

// worker processes entries from the channel
func (l *Logger) worker(id int) {
	defer l.wg.Done()

	l.logger.Debug("execution log worker started", zap.Int("worker_id", id))

	for entry := range l.eventChan {
		if err := l.processEntry(entry); err != nil {
			l.logger.Error("failed to process execution log entry",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("execution_id", entry.Execution.ID.String()))
		}
	}

	l.logger.Debug("execution log worker stopped", zap.Int("worker_id", id))
}

// processEntry persists the execution row and increments the usage counter.
// The increment runs even when the evaluation failed: an attempt that
// reached the evaluator consumed quota.
func (l *Logger) processEntry(entry *LogEntry) error {
	ctx, cancel := context.WithTimeout(l.ctx, 10*time.Second)
	defer cancel()

	if err := l.executions.Insert(ctx, entry.Execution); err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	if err := l.counter.Increment(ctx, entry.Execution.UserID, models.UsageTypeExecutions, 1); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	return nil
}

// Pending returns the number of queued entries, for tests and readiness
func (l *Logger) Pending() int {
	return len(l.eventChan)
}
