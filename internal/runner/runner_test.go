package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"standardizer/internal/domain"
)

type fakeQueue struct {
	mu         sync.Mutex
	pending    int64
	processing int64
	groups     []domain.GroupCount
	countErr   error
	resetCalls []time.Duration
}

func (f *fakeQueue) CountPending(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, f.countErr
}

func (f *fakeQueue) CountProcessing(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processing, nil
}

func (f *fakeQueue) ResetStuck(_ context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls = append(f.resetCalls, olderThan)
	return f.processing, nil
}

func (f *fakeQueue) PendingGroupPrefixes(context.Context) ([]domain.GroupCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups, nil
}

type fakeProcessor struct {
	mu       sync.Mutex
	result   *domain.BatchResult
	err      error
	prefixes []string
}

func (f *fakeProcessor) ProcessBatch(_ context.Context, limit int, prefix string) (*domain.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefix)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.BatchResult{Total: limit}, nil
}

func (f *fakeProcessor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prefixes)
}

func newTestRunner(queue *fakeQueue, processor *fakeProcessor, grouped bool) *Runner {
	return New(Config{
		Processor:      processor,
		Queue:          queue,
		BatchSize:      10,
		PollInterval:   30 * time.Second,
		RateLimitDelay: 10 * time.Second,
		ErrorBackoff:   60 * time.Second,
		StuckThreshold: 30 * time.Minute,
		GroupedPolling: grouped,
		Logger:         slog.Default(),
	})
}

func TestCycle_EmptyQueueSleepsPollInterval(t *testing.T) {
	queue := &fakeQueue{pending: 0}
	processor := &fakeProcessor{}
	r := newTestRunner(queue, processor, false)

	delay := r.cycle(context.Background())
	if delay != r.pollInterval {
		t.Errorf("empty queue must sleep poll interval, got %v", delay)
	}
	if processor.calls() != 0 {
		t.Error("empty queue must not dispatch")
	}
}

func TestCycle_WorkPacedByRateLimit(t *testing.T) {
	queue := &fakeQueue{pending: 100}
	processor := &fakeProcessor{result: &domain.BatchResult{Total: 10, Standardized: 10}}
	r := newTestRunner(queue, processor, false)

	delay := r.cycle(context.Background())
	if delay != r.rateLimitDelay {
		t.Errorf("non-empty batch must sleep rate-limit delay, got %v", delay)
	}
	if processor.calls() != 1 {
		t.Errorf("expected 1 dispatch, got %d", processor.calls())
	}
}

func TestCycle_ErrorBacksOff(t *testing.T) {
	queue := &fakeQueue{pending: 100}
	processor := &fakeProcessor{err: errors.New("oracle down")}
	r := newTestRunner(queue, processor, false)

	delay := r.cycle(context.Background())
	if delay != r.errorBackoff {
		t.Errorf("failed cycle must back off, got %v", delay)
	}
}

func TestCycle_CountErrorBacksOff(t *testing.T) {
	queue := &fakeQueue{countErr: errors.New("mongo down")}
	processor := &fakeProcessor{}
	r := newTestRunner(queue, processor, false)

	delay := r.cycle(context.Background())
	if delay != r.errorBackoff {
		t.Errorf("count failure must back off, got %v", delay)
	}
	if processor.calls() != 0 {
		t.Error("count failure must not dispatch")
	}
}

func TestCycle_GroupedPollingClaimsTopClass(t *testing.T) {
	queue := &fakeQueue{
		pending: 100,
		groups: []domain.GroupCount{
			{Code: "26.20.11", Count: 60},
			{Code: "17.12.14", Count: 40},
		},
	}
	processor := &fakeProcessor{result: &domain.BatchResult{Total: 10}}
	r := newTestRunner(queue, processor, true)

	r.cycle(context.Background())

	processor.mu.Lock()
	defer processor.mu.Unlock()
	if len(processor.prefixes) != 1 || processor.prefixes[0] != "26" {
		t.Errorf("grouped mode must claim the top pending class, got %v", processor.prefixes)
	}
}

func TestResetStuck(t *testing.T) {
	queue := &fakeQueue{processing: 3}
	r := newTestRunner(queue, &fakeProcessor{}, false)

	reset, err := r.ResetStuck(context.Background(), 0)
	if err != nil {
		t.Fatalf("ResetStuck: %v", err)
	}
	if reset != 3 {
		t.Errorf("expected 3 reset, got %d", reset)
	}
	if len(queue.resetCalls) != 1 || queue.resetCalls[0] != r.stuckThreshold {
		t.Errorf("default reset must use the configured threshold, got %v", queue.resetCalls)
	}

	// Явный порог важнее настроенного.
	if _, err := r.ResetStuck(context.Background(), 45*time.Minute); err != nil {
		t.Fatalf("ResetStuck: %v", err)
	}
	if queue.resetCalls[1] != 45*time.Minute {
		t.Errorf("explicit threshold lost: %v", queue.resetCalls[1])
	}
}

func TestRunner_StartStop(t *testing.T) {
	queue := &fakeQueue{pending: 100}
	processor := &fakeProcessor{result: &domain.BatchResult{Total: 10}}

	r := New(Config{
		Processor:      processor,
		Queue:          queue,
		BatchSize:      10,
		PollInterval:   time.Millisecond,
		RateLimitDelay: time.Millisecond,
		ErrorBackoff:   time.Millisecond,
		Logger:         slog.Default(),
	})

	r.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for processor.calls() < 2 {
		select {
		case <-deadline:
			t.Fatal("runner did not dispatch in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	r.Stop()
	settled := processor.calls()
	time.Sleep(20 * time.Millisecond)
	if processor.calls() != settled {
		t.Error("runner must not dispatch after Stop")
	}
}
