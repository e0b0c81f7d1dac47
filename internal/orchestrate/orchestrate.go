/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package orchestrate wraps asynchronous AI calls with observable loading
// state, cooperative cancellation and error capture so call sites never
// re-implement that contract. One logical operation is current at a time;
// each invocation gets a fresh cancellation token, so a late cancel aimed at
// a superseded call can never suppress a newer one.
package orchestrate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	applog "promptforge/internal/log"
)

// CancelledToast is the transient acknowledgment shown when the user aborts
// the current operation.
const CancelledToast = "Operação cancelada."

// StatusSink receives the observable side of the orchestration contract.
// The store implements it over its ephemeral UI fields.
type StatusSink interface {
	// BeginLoading clears any prior error and raises the loading flag with
	// the given message.
	BeginLoading(message string)
	// UpdateLoading replaces the loading message while the flag stays up.
	UpdateLoading(message string)
	// EndLoading lowers the loading flag and clears the message.
	EndLoading()
	// ReportError records a user-visible error message.
	ReportError(message string)
	// Toast shows a transient, auto-expiring notice.
	Toast(message string)
}

// Runner serializes generation operations against a single StatusSink.
type Runner struct {
	mu      sync.Mutex
	sink    StatusSink
	cancel  context.CancelFunc
	current *token
	log     *slog.Logger
}

// token is the per-invocation cancellation state. The cancelled flag is
// sticky: once raised, the owning run discards its result even if the
// wrapped operation already resolved.
type token struct {
	mu        sync.Mutex
	cancelled bool
}

func (t *token) raise() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

func (t *token) raised() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// NewRunner returns a Runner publishing through sink.
func NewRunner(sink StatusSink) *Runner {
	return &Runner{sink: sink, log: applog.WithComponent("orchestrate")}
}

// begin installs a fresh token as the current operation and returns it with
// a derived context cancelled by Cancel.
func (r *Runner) begin(ctx context.Context) (context.Context, *token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	opCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.current = &token{}
	return opCtx, r.current
}

// finish drops the token if it is still the current one.
func (r *Runner) finish(t *token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == t {
		r.current = nil
		r.cancel = nil
	}
}

// Cancel aborts the current operation, immediately clears loading state and
// acknowledges with a transient notice. Safe to call when nothing runs.
func (r *Runner) Cancel() {
	r.mu.Lock()
	t := r.current
	cancel := r.cancel
	r.current = nil
	r.cancel = nil
	r.mu.Unlock()
	if t == nil {
		return
	}
	t.raise()
	if cancel != nil {
		cancel()
	}
	r.sink.EndLoading()
	r.sink.Toast(CancelledToast)
	r.log.Debug("operation cancelled")
}

// Run executes op under the loading/cancel/error contract. It returns
// (zero, false) when the operation failed or was cancelled; a cancelled
// result is dropped on the floor even if op resolved successfully.
func Run[T any](r *Runner, ctx context.Context, loadingMessage string, op func(context.Context) (T, error)) (T, bool) {
	var zero T
	opCtx, tok := r.begin(ctx)
	r.sink.BeginLoading(loadingMessage)

	result, err := op(opCtx)

	if tok.raised() {
		// Cancel already cleared loading state; the result is discarded
		// without surfacing an error.
		return zero, false
	}
	defer r.finish(tok)
	defer r.sink.EndLoading()
	if err != nil {
		r.sink.ReportError(userMessage(err))
		return zero, false
	}
	return result, true
}

// BatchResult reports how far a batch run got.
type BatchResult struct {
	Completed int
	Total     int
	Aborted   bool
}

// RunBatch applies step to each item in order under a single loading
// session, publishing progress before each item and checking the
// cancellation token between items. Results committed by earlier steps are
// retained on abort. A step error stops the batch and is surfaced like a
// Run failure.
func RunBatch[T any](r *Runner, ctx context.Context, items []T, progress func(done, total int) string, step func(context.Context, T) error) BatchResult {
	res := BatchResult{Total: len(items)}
	opCtx, tok := r.begin(ctx)
	r.sink.BeginLoading(progress(0, len(items)))

	for i, item := range items {
		if tok.raised() {
			res.Aborted = true
			return res
		}
		r.sink.UpdateLoading(progress(i+1, len(items)))
		if err := step(opCtx, item); err != nil {
			if tok.raised() {
				// Cancel already cleared loading state.
				res.Aborted = true
				return res
			}
			if errors.Is(err, context.Canceled) {
				// Parent context cancelled without Cancel: nothing else
				// lowers the loading flag, so do it here.
				res.Aborted = true
				r.finish(tok)
				r.sink.EndLoading()
				return res
			}
			r.finish(tok)
			r.sink.ReportError(userMessage(err))
			r.sink.EndLoading()
			return res
		}
		res.Completed++
	}
	if tok.raised() {
		res.Aborted = true
		return res
	}
	r.finish(tok)
	r.sink.EndLoading()
	return res
}

// userMessage keeps raw error text out of the UI only when there is none.
func userMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Ocorreu um erro desconhecido."
	}
	return err.Error()
}
