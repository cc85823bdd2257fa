package pipeline

import "context"

// Stage is one step of a run. Stages with a lower Order run first.
// Collaborators are constructor arguments so a stage is never half wired.
type Stage interface {
	Name() string
	Order() int
	Process(ctx context.Context, ec *ExecutionContext) Outcome
}
