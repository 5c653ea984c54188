// Package audit holds the audit event model and the asynchronous dispatcher
// shared between the root package and its exporters. It has no dependencies on
// the rest of the module.
package audit
