// Package scheduler hosts the fixed pool of workers that run bleeding jobs.
// Submit appends a job to an unbounded FIFO queue; every idle worker takes
// the head of the queue, runs it to completion, invokes the job's callback
// and immediately takes the next one.
//
// Dispatch order follows submission order. Completion order does not: a
// quick job may finish before a slow job submitted earlier on another
// worker. A failed job only affects its own callback.
package scheduler
