package domain

import "context"

// ProgressManager creates and tracks progress tasks for long-running work
type ProgressManager interface {
	// StartTask creates a new progress task with a description and total count
	StartTask(description string, total int) TaskProgress

	// IsInteractive returns true if progress output is rendered
	IsInteractive() bool

	// Close cleans up all tasks
	Close()
}

// TaskProgress tracks the progress of a single task
type TaskProgress interface {
	// Increment adds n to the current progress
	Increment(n int)

	// Describe updates the current item description
	Describe(description string)

	// Complete marks the task as finished
	Complete()
}

// ExecutableTask is a unit of work the parallel executor can run
type ExecutableTask interface {
	// Name identifies the task in error reports
	Name() string

	// IsEnabled reports whether the task should run at all
	IsEnabled() bool

	// Execute runs the task and returns its result
	Execute(ctx context.Context) (interface{}, error)
}

// ParallelExecutor runs tasks concurrently with bounded parallelism
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
}
