// Package state keeps per-user conversation sessions and dispatches text
// updates to the handler registered for the user's current step.
package state
