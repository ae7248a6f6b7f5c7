// Package messaging defines the queue abstraction that carries jobs from
// Submit to the scheduler's workers. Messages are delivered exactly once;
// a nacked message is never redelivered.
package messaging
