package jobs

import "errors"

var (
	errPanicStep       = errors.New("panic in job step")
	errStoreQuote      = errors.New("failed to cache quote")
	errStoreNews       = errors.New("failed to cache news")
	errScheduleJob     = errors.New("failed to schedule maintenance job")
	errCreateScheduler = errors.New("failed to create scheduler")
)
