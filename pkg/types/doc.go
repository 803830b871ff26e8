// Package types defines the core data structures shared by the load engine,
// the analysis layer and the collaborators around them.
//
// This package contains:
//   - RequestOutcome, the raw record produced for every request attempt
//   - RunMetrics, the statistical reduction of one run
//   - RunSummary, the persisted form kept by the run history store
//   - LoadTestRequest and RunReport, the invocation input and output
package types
