package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Metadata accompanies every request and response.
type Metadata struct {
	UserID              uuid.UUID  `json:"user_id"`
	BattleID            *uuid.UUID `json:"battle_id,omitempty"`
	RequestID           *uuid.UUID `json:"request_id,omitempty"`
	IntegrationTestID   *uuid.UUID `json:"integration_test_id,omitempty"`
	LastResponseVersion *uuid.UUID `json:"last_response_version,omitempty"`
}

// DisplayProperties describes the client screen to the engine.
type DisplayProperties struct {
	ScreenWidth  float32 `json:"screen_width"`
	ScreenHeight float32 `json:"screen_height"`
	IsMobile     bool    `json:"is_mobile_device"`
}

// DebugConfiguration seeds a deterministic battle for test runs.
type DebugConfiguration struct {
	Seed  *uint64         `json:"seed,omitempty"`
	Enemy json.RawMessage `json:"enemy,omitempty"`
}

// ConnectRequest starts or resumes a session.
type ConnectRequest struct {
	Metadata            Metadata            `json:"metadata"`
	PersistentDataPath  string              `json:"persistent_data_path"`
	StreamingAssetsPath string              `json:"streaming_assets_path"`
	VsOpponent          *uuid.UUID          `json:"vs_opponent,omitempty"`
	DisplayProperties   *DisplayProperties  `json:"display_properties,omitempty"`
	DebugConfiguration  *DebugConfiguration `json:"debug_configuration,omitempty"`
}

// ConnectResponse carries the full current state as commands.
type ConnectResponse struct {
	Metadata        Metadata        `json:"metadata"`
	Commands        CommandSequence `json:"commands"`
	ResponseVersion *uuid.UUID      `json:"response_version,omitempty"`
}

// PerformActionRequest submits a player action.
type PerformActionRequest struct {
	Metadata            Metadata   `json:"metadata"`
	Action              GameAction `json:"-"`
	SaveFileID          *uuid.UUID `json:"save_file_id,omitempty"`
	LastResponseVersion *uuid.UUID `json:"last_response_version,omitempty"`
}

type performActionWire struct {
	Metadata            Metadata        `json:"metadata"`
	Action              json.RawMessage `json:"action"`
	SaveFileID          *uuid.UUID      `json:"save_file_id,omitempty"`
	LastResponseVersion *uuid.UUID      `json:"last_response_version,omitempty"`
}

// MarshalJSON encodes the request with its tagged action.
func (r PerformActionRequest) MarshalJSON() ([]byte, error) {
	action, err := MarshalAction(r.Action)
	if err != nil {
		return nil, err
	}
	return json.Marshal(performActionWire{
		Metadata:            r.Metadata,
		Action:              action,
		SaveFileID:          r.SaveFileID,
		LastResponseVersion: r.LastResponseVersion,
	})
}

// UnmarshalJSON decodes the request with its tagged action.
func (r *PerformActionRequest) UnmarshalJSON(data []byte) error {
	var in performActionWire
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	action, err := UnmarshalAction(in.Action)
	if err != nil {
		return fmt.Errorf("perform action request: %w", err)
	}
	*r = PerformActionRequest{
		Metadata:            in.Metadata,
		Action:              action,
		SaveFileID:          in.SaveFileID,
		LastResponseVersion: in.LastResponseVersion,
	}
	return nil
}

// PerformActionResponse carries the immediate result of an action.
type PerformActionResponse struct {
	Metadata Metadata        `json:"metadata"`
	Commands CommandSequence `json:"commands"`
}

// PollRequest asks for pending updates.
type PollRequest struct {
	Metadata Metadata `json:"metadata"`
}

// PollResponseType says where a poll response sits in a job.
type PollResponseType string

const (
	// PollNone means nothing is pending.
	PollNone PollResponseType = "None"
	// PollIncremental is a partial update for an in-progress job.
	PollIncremental PollResponseType = "Incremental"
	// PollFinal is the last update of the job identified by the response
	// request id.
	PollFinal PollResponseType = "Final"
)

// PollResponse carries pending updates, if any.
type PollResponse struct {
	Metadata        Metadata         `json:"metadata"`
	Commands        *CommandSequence `json:"commands,omitempty"`
	ResponseType    PollResponseType `json:"response_type"`
	ResponseVersion *uuid.UUID       `json:"response_version,omitempty"`
}

// ClientLogRequest forwards a client log entry to the engine log.
type ClientLogRequest struct {
	Metadata Metadata       `json:"metadata"`
	Entry    ClientLogEntry `json:"entry"`
}

// ClientLogEntry is one log line with optional structured fields.
type ClientLogEntry struct {
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ClientLogResponse is empty.
type ClientLogResponse struct{}
