// Package transport carries requests to the rules engine and decodes its
// replies. Two carriers exist: an in-process engine called synchronously
// and a loopback HTTP engine used during development.
package transport

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/dreamtides/internal/platform/errors"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/storage"
)

// Mode identifies the carrier.
type Mode string

const (
	// ModeInProcess calls an engine linked into this process. Calls complete
	// before they return.
	ModeInProcess Mode = "in_process"
	// ModeLoopback calls an engine over HTTP. The runtime runs these calls
	// off the tick loop.
	ModeLoopback Mode = "loopback"
)

// Operation names one engine RPC.
type Operation string

const (
	OpConnect       Operation = "connect"
	OpPerformAction Operation = "perform_action"
	OpPoll          Operation = "poll"
	OpLog           Operation = "log"
)

// Transport is the client side of the engine contract.
type Transport interface {
	Mode() Mode
	Connect(ctx context.Context, req protocol.ConnectRequest) (protocol.ConnectResponse, error)
	PerformAction(ctx context.Context, req protocol.PerformActionRequest) (protocol.PerformActionResponse, error)
	Poll(ctx context.Context, req protocol.PollRequest) (protocol.PollResponse, error)
	Log(ctx context.Context, req protocol.ClientLogRequest) error
}

// IsTransportFailure reports whether err means the engine could not be
// reached or refused the call.
func IsTransportFailure(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeTransport)
}

// IsDecodeFailure reports whether err means the engine replied with a body
// the client could not decode.
func IsDecodeFailure(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeDecode)
}

// Outcome classifies err for exchange records.
func Outcome(err error) string {
	switch {
	case err == nil:
		return storage.OutcomeOK
	case IsTransportFailure(err):
		return storage.OutcomeTransportError
	case IsDecodeFailure(err):
		return storage.OutcomeDecodeError
	default:
		return storage.OutcomeError
	}
}

// ErrNilEngine indicates an in-process transport without an engine.
var ErrNilEngine = errors.New("engine is required")

func encodeError(op Operation, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeEncode, "encode "+string(op)+" request", map[string]string{"operation": string(op)}, err)
}

func transportError(op Operation, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeTransport, string(op)+" call failed", map[string]string{"operation": string(op)}, err)
}

func decodeError(op Operation, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeDecode, "decode "+string(op)+" response", map[string]string{"operation": string(op)}, err)
}
