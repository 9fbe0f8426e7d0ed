package orchestrator

import "errors"

var (
	// ErrPlannerRequired is returned when a planner is not provided.
	ErrPlannerRequired = errors.New("planner required")

	// ErrSearcherRequired is returned when a search connector is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrQuotesRequired is returned when a quote lookup is not provided.
	ErrQuotesRequired = errors.New("quote lookup required")

	// ErrReportWriterRequired is returned when a report writer is not provided.
	ErrReportWriterRequired = errors.New("report writer required")
)
