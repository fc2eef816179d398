// Package retry wraps calls to remote recognition and translation services in
// a fixed-backoff retry loop.
//
// Invoke is capability agnostic: callers close over their own arguments and
// receive either the first successful result or an error tagged with
// services.ErrExternalService that still carries the last underlying failure.
package retry
