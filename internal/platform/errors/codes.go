// Package errors provides the structured error type shared by the client
// runtime, transports and storage.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodePrecondition marks a violated runtime precondition: session
	// metadata missing when required, or an in-process engine call that
	// failed. These are not retried.
	CodePrecondition Code = "PRECONDITION"

	// CodeTransport marks a failed round trip to the engine (network error,
	// non-success HTTP status). Recoverable through connect retries.
	CodeTransport Code = "TRANSPORT"

	// CodeDecode marks a response body that could not be deserialized. The
	// call is treated as if no response had been received.
	CodeDecode Code = "DECODE"

	// CodeEncode marks a request that could not be serialized.
	CodeEncode Code = "ENCODE"

	// CodeNotFound marks a missing stored record.
	CodeNotFound Code = "NOT_FOUND"
)

// Retryable reports whether errors with this code may succeed on a later
// attempt without any client-side change.
func (c Code) Retryable() bool {
	return c == CodeTransport
}
