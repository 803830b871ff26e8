// Package loadtest implements the load-generation engine: virtual users that
// issue requests back-to-back against a single target until a deadline, with
// optional chaos fault injection, and an orchestrator that fans them out over
// a shared fasthttp connection pool.
package loadtest
