// Package executor bridges jobs dispatched by the scheduler with the
// bleeding engine. It is the only place a job's image is handed to the
// engine, and it wraps every run in a tracing span.
package executor
