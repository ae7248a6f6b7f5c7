// Package progress keeps aggregated job counters for a scheduler so that a
// caller (a CLI, a UI) can render progress without inspecting jobs one by
// one.
package progress
