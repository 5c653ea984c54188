// Package stream runs dish-generation searches as cancellable background tasks
// and fans the ND-JSON result stream out to screen subscribers. Tasks are keyed
// by request id so a screen that re-mounts mid-generation can reattach instead
// of starting a duplicate search; dropping a subscription never kills the task,
// cancelling the task's context does.
package stream
