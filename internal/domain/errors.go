package domain

import "errors"

// Planning and suggestion conditions surfaced to callers. These are
// expected states, not faults: callers branch on them with errors.Is.
var (
	// ErrNoWorkAvailable means the work-order source returned no active
	// operations. Retryable once upstream releases work.
	ErrNoWorkAvailable = errors.New("no active work-order operations available")

	// ErrNoEligiblePlanEntries means operations existed but none could be
	// assigned to an available machine.
	ErrNoEligiblePlanEntries = errors.New("no eligible plan entries for the available machines")

	// ErrNoPlanBatch means a suggestion was requested before any plan
	// batch was created.
	ErrNoPlanBatch = errors.New("no plan batch exists")

	// ErrNoPlannedJobsRemaining means the current batch is exhausted.
	ErrNoPlannedJobsRemaining = errors.New("no planned jobs remaining in the current batch")

	// ErrAllJobsIgnored means every remaining candidate is under an
	// active refusal TTL.
	ErrAllJobsIgnored = errors.New("all remaining jobs are under an active ignore")

	// ErrJobNotFound means the referenced planned job does not exist.
	ErrJobNotFound = errors.New("planned job not found")
)
