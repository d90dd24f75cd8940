// Package series runs continuation-style tasks one after another.
//
// Each task receives a next function that it must call exactly once, either
// before returning or later from any goroutine. The following task starts only
// after next has been called with a nil error. The first non-nil error stops
// the run and is handed to the completion function unchanged.
package series

import (
	"context"
	"sync/atomic"
)

// Task is a single step of a run.
type Task func(ctx context.Context, next func(error))

// Runner executes tasks sequentially. The zero value is ready to use.
type Runner struct {
	// OnRepeat, if set, is called with the task index whenever a task calls
	// its next function more than once. Repeated calls are otherwise ignored.
	OnRepeat func(index int)
}

// Run executes tasks in order with the zero Runner.
func Run(ctx context.Context, tasks []Task, done func(error)) {
	Runner{}.Run(ctx, tasks, done)
}

// Run executes tasks in order and calls done exactly once: with the first
// error reported by a task, with ctx.Err() if ctx is done before a task
// starts, or with nil once every task has completed.
func (r Runner) Run(ctx context.Context, tasks []Task, done func(error)) {
	(&run{Runner: r, ctx: ctx, tasks: tasks, done: done}).step(0)
}

type run struct {
	Runner

	ctx   context.Context
	tasks []Task
	done  func(error)
}

func (r *run) step(i int) {
	if i == len(r.tasks) {
		r.done(nil)
		return
	}
	if err := r.ctx.Err(); err != nil {
		r.done(err)
		return
	}

	var called atomic.Bool
	r.tasks[i](r.ctx, func(err error) {
		if !called.CompareAndSwap(false, true) {
			if r.OnRepeat != nil {
				r.OnRepeat(i)
			}
			return
		}
		if err != nil {
			r.done(err)
			return
		}
		r.step(i + 1)
	})
}
