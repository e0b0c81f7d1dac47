package orchestrate

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordingSink captures the status calls the runner makes.
type recordingSink struct {
	mu       sync.Mutex
	loading  bool
	message  string
	errorMsg string
	toasts   []string
	updates  []string
}

func (s *recordingSink) BeginLoading(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.message = msg
	s.errorMsg = ""
}

func (s *recordingSink) UpdateLoading(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
	s.updates = append(s.updates, msg)
}

func (s *recordingSink) EndLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.message = ""
}

func (s *recordingSink) ReportError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorMsg = msg
}

func (s *recordingSink) Toast(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, msg)
}

func (s *recordingSink) snapshot() (loading bool, errMsg string, toasts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading, s.errorMsg, append([]string(nil), s.toasts...)
}

func TestRunSuccess(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	got, ok := Run(r, context.Background(), "working...", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if !ok || got != 42 {
		t.Fatalf("Run = (%d, %v), want (42, true)", got, ok)
	}
	loading, errMsg, _ := sink.snapshot()
	if loading {
		t.Fatalf("loading flag still raised")
	}
	if errMsg != "" {
		t.Fatalf("unexpected error %q", errMsg)
	}
}

func TestRunFailureCapturesError(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	_, ok := Run(r, context.Background(), "working...", func(ctx context.Context) (int, error) {
		return 0, errors.New("falha na comunicação com o modelo")
	})
	if ok {
		t.Fatalf("expected failure")
	}
	loading, errMsg, _ := sink.snapshot()
	if loading {
		t.Fatalf("loading flag still raised after failure")
	}
	if errMsg != "falha na comunicação com o modelo" {
		t.Fatalf("error = %q", errMsg)
	}
}

func TestCancelBeforeResolveDiscardsResult(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	started := make(chan struct{})
	release := make(chan struct{})

	type out struct {
		v  int
		ok bool
	}
	done := make(chan out, 1)
	go func() {
		v, ok := Run(r, context.Background(), "working...", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 7, nil // resolves successfully after the cancel
		})
		done <- out{v, ok}
	}()

	<-started
	r.Cancel()
	close(release)
	res := <-done

	if res.ok || res.v != 0 {
		t.Fatalf("cancelled run returned (%d, %v), want (0, false)", res.v, res.ok)
	}
	loading, errMsg, toasts := sink.snapshot()
	if loading {
		t.Fatalf("loading flag raised after cancel")
	}
	if errMsg != "" {
		t.Fatalf("cancel must not surface an error, got %q", errMsg)
	}
	if len(toasts) != 1 || toasts[0] != CancelledToast {
		t.Fatalf("toasts = %v", toasts)
	}
}

func TestStaleCancelDoesNotAffectNewerRun(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)

	// First run is cancelled.
	_, _ = Run(r, context.Background(), "first", func(ctx context.Context) (int, error) {
		r.Cancel()
		return 1, nil
	})
	// A fresh run must be unaffected by the earlier cancellation.
	got, ok := Run(r, context.Background(), "second", func(ctx context.Context) (int, error) {
		return 2, nil
	})
	if !ok || got != 2 {
		t.Fatalf("newer run = (%d, %v), want (2, true)", got, ok)
	}
}

func TestCancelWithoutRunIsNoop(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	r.Cancel()
	if _, _, toasts := sink.snapshot(); len(toasts) != 0 {
		t.Fatalf("idle cancel should not toast, got %v", toasts)
	}
}

func TestRunBatchCompletesAllItems(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	var seen []string
	res := RunBatch(r, context.Background(), []string{"a", "b", "c"},
		func(done, total int) string { return "item" },
		func(ctx context.Context, item string) error {
			seen = append(seen, item)
			return nil
		})
	if res.Completed != 3 || res.Aborted {
		t.Fatalf("res = %+v", res)
	}
	if len(seen) != 3 {
		t.Fatalf("seen = %v", seen)
	}
	if loading, _, _ := sink.snapshot(); loading {
		t.Fatalf("loading flag raised after batch")
	}
}

func TestRunBatchAbortRetainsPartialProgress(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	var committed []string
	res := RunBatch(r, context.Background(), []string{"a", "b", "c", "d"},
		func(done, total int) string { return "item" },
		func(ctx context.Context, item string) error {
			committed = append(committed, item)
			if item == "b" {
				r.Cancel()
			}
			return nil
		})
	if !res.Aborted {
		t.Fatalf("expected aborted batch, got %+v", res)
	}
	if len(committed) != 2 {
		t.Fatalf("committed = %v, want first two items", committed)
	}
	loading, errMsg, _ := sink.snapshot()
	if loading || errMsg != "" {
		t.Fatalf("abort should clear loading without error, got loading=%v err=%q", loading, errMsg)
	}
}

func TestRunBatchParentContextCancelClearsLoading(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	ctx, cancel := context.WithCancel(context.Background())
	res := RunBatch(r, ctx, []string{"a", "b"},
		func(done, total int) string { return "item" },
		func(stepCtx context.Context, item string) error {
			cancel()
			return stepCtx.Err()
		})
	if !res.Aborted || res.Completed != 0 {
		t.Fatalf("res = %+v", res)
	}
	loading, errMsg, _ := sink.snapshot()
	if loading {
		t.Fatalf("loading flag raised after parent cancel")
	}
	if errMsg != "" {
		t.Fatalf("parent cancel must not surface an error, got %q", errMsg)
	}
	// The token must be released so a later run starts clean.
	got, ok := Run(r, context.Background(), "next", func(ctx context.Context) (int, error) {
		return 9, nil
	})
	if !ok || got != 9 {
		t.Fatalf("follow-up run = (%d, %v), want (9, true)", got, ok)
	}
}

func TestRunBatchStepErrorStopsAndSurfaces(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	res := RunBatch(r, context.Background(), []string{"a", "b", "c"},
		func(done, total int) string { return "item" },
		func(ctx context.Context, item string) error {
			if item == "b" {
				return errors.New("broke")
			}
			return nil
		})
	if res.Completed != 1 || res.Aborted {
		t.Fatalf("res = %+v", res)
	}
	if _, errMsg, _ := sink.snapshot(); errMsg != "broke" {
		t.Fatalf("error = %q", errMsg)
	}
}

func TestRunClearsPriorError(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(sink)
	_, _ = Run(r, context.Background(), "one", func(ctx context.Context) (int, error) {
		return 0, errors.New("first failure")
	})
	_, ok := Run(r, context.Background(), "two", func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if !ok {
		t.Fatalf("second run failed")
	}
	if _, errMsg, _ := sink.snapshot(); errMsg != "" {
		t.Fatalf("prior error not cleared: %q", errMsg)
	}
}
