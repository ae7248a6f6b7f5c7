// Package job defines the unit of work the scheduler dispatches: an image to
// bleed, its lifecycle state and the one-shot completion callback.
//
// A job moves queued → dispatched → running → completed | failed. Notify
// invokes the callback at most once, after the job is terminal.
package job
