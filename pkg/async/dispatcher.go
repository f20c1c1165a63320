package async

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ErrorHandler receives the error of every background task that failed.
type ErrorHandler func(task string, err error)

// Dispatcher runs fire-and-forget tasks on their own goroutines and
// keeps track of them so callers can wait for quiescence.
// Zero value is not usable; use NewDispatcher to create instances.
type Dispatcher struct {
	ctx     context.Context
	wg      sync.WaitGroup
	onError ErrorHandler
}

// NewDispatcher creates a Dispatcher. onError may be nil.
func NewDispatcher(onError ErrorHandler) *Dispatcher {
	return &Dispatcher{
		ctx:     context.Background(),
		onError: onError,
	}
}

// Go runs fn in the background. The outcome is only visible through the
// dispatcher's error handler.
// fn receives a context detached from any caller; background work is never cancelled.
func (d *Dispatcher) Go(name string, fn func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.report(name, &PanicError{Task: name, Value: r})
			}
		}()

		d.report(name, fn(d.ctx))
	}()
}

// Wait blocks until every dispatched task has finished,
// including tasks dispatched while waiting.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// WaitTimeout is Wait bounded by timeout. It returns ErrTimeout when tasks are
// still running after timeout; those tasks keep running.
func (d *Dispatcher) WaitTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrTimeout
	}
}

func (d *Dispatcher) report(task string, err error) {
	if err == nil || d.onError == nil {
		return
	}
	d.onError(task, err)
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Task  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("async: task %q panicked: %v", e.Task, e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrPanic
}
