// Package core defines the shared types of evolab: suite runs, task runs,
// collected artifacts, the state store interface, and experiment parameters.
// It has no dependencies on the internal packages so that both the engine
// and the state store can build on it.
package core
