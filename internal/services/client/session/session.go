// Package session owns the metadata attached to every engine request and
// builds the requests themselves. It is the single writer of that
// metadata: the user id chosen at startup, the battle id and response
// version learned from responses, and a fresh request id per submission.
package session

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/platform/id"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
)

// Environment is what the host tells the engine about itself on connect.
type Environment struct {
	PersistentDataPath  string
	StreamingAssetsPath string
	Display             *protocol.DisplayProperties
	VsOpponent          *uuid.UUID

	// IntegrationTestID marks an automated test run. Test runs connect with
	// a deterministic seed and a synthetic opponent.
	IntegrationTestID *uuid.UUID
	TestSeed          uint64
	TestEnemy         json.RawMessage
}

// State is the session. Not safe for concurrent use; the client loop owns
// it.
type State struct {
	env     Environment
	userID  uuid.UUID
	newID   id.Generator
	meta    *protocol.Metadata
	version *uuid.UUID
}

// New creates an uninitialized session for userID. A nil generator uses
// random ids.
func New(userID uuid.UUID, env Environment, newID id.Generator) *State {
	if newID == nil {
		newID = id.New
	}
	env.PersistentDataPath = strings.TrimSpace(env.PersistentDataPath)
	env.StreamingAssetsPath = strings.TrimSpace(env.StreamingAssetsPath)
	return &State{env: env, userID: userID, newID: newID}
}

// Initialized reports whether a connect request has been built.
func (s *State) Initialized() bool {
	return s != nil && s.meta != nil
}

// UserID returns the session user.
func (s *State) UserID() uuid.UUID {
	return s.userID
}

// BattleID returns the battle learned from the engine, if any.
func (s *State) BattleID() *uuid.UUID {
	if s.meta == nil || s.meta.BattleID == nil {
		return nil
	}
	return id.Ptr(*s.meta.BattleID)
}

// LastResponseVersion returns the most recent version received.
func (s *State) LastResponseVersion() *uuid.UUID {
	if s.version == nil {
		return nil
	}
	return id.Ptr(*s.version)
}

// BuildConnect initializes the session if needed and returns a connect
// request with a fresh request id.
func (s *State) BuildConnect() protocol.ConnectRequest {
	if s.meta == nil {
		s.meta = &protocol.Metadata{
			UserID:            s.userID,
			IntegrationTestID: s.env.IntegrationTestID,
		}
	}
	meta := s.stamp(true)
	req := protocol.ConnectRequest{
		Metadata:            meta,
		PersistentDataPath:  s.env.PersistentDataPath,
		StreamingAssetsPath: s.env.StreamingAssetsPath,
		VsOpponent:          s.env.VsOpponent,
		DisplayProperties:   s.env.Display,
	}
	if s.env.IntegrationTestID != nil {
		seed := s.env.TestSeed
		req.DebugConfiguration = &protocol.DebugConfiguration{
			Seed:  &seed,
			Enemy: s.env.TestEnemy,
		}
	}
	return req
}

// BuildPerformAction returns a request submitting action under a fresh
// request id. ok is false before the session is initialized.
func (s *State) BuildPerformAction(action protocol.GameAction) (protocol.PerformActionRequest, bool) {
	if !s.Initialized() {
		return protocol.PerformActionRequest{}, false
	}
	meta := s.stamp(true)
	return protocol.PerformActionRequest{
		Metadata:            meta,
		Action:              action,
		LastResponseVersion: meta.LastResponseVersion,
	}, true
}

// BuildPoll returns a poll request. It reuses no request id; the engine
// echoes the id of the job it reports on. ok is false before the session
// is initialized.
func (s *State) BuildPoll() (protocol.PollRequest, bool) {
	if !s.Initialized() {
		return protocol.PollRequest{}, false
	}
	return protocol.PollRequest{Metadata: s.stamp(false)}, true
}

// BuildLog wraps entry in a log request. ok is false before the session is
// initialized.
func (s *State) BuildLog(entry protocol.ClientLogEntry) (protocol.ClientLogRequest, bool) {
	if !s.Initialized() {
		return protocol.ClientLogRequest{}, false
	}
	return protocol.ClientLogRequest{Metadata: s.stamp(false), Entry: entry}, true
}

// ObserveConnect records what a connect response tells us.
func (s *State) ObserveConnect(resp protocol.ConnectResponse) {
	s.observe(resp.Metadata, resp.ResponseVersion)
}

// ObservePerformAction records what a perform-action response tells us.
func (s *State) ObservePerformAction(resp protocol.PerformActionResponse) {
	s.observe(resp.Metadata, nil)
}

// ObservePoll records what a poll response tells us.
func (s *State) ObservePoll(resp protocol.PollResponse) {
	s.observe(resp.Metadata, resp.ResponseVersion)
}

func (s *State) observe(meta protocol.Metadata, version *uuid.UUID) {
	if s.meta == nil {
		return
	}
	if meta.BattleID != nil {
		s.meta.BattleID = id.Ptr(*meta.BattleID)
	}
	if version != nil {
		s.version = id.Ptr(*version)
	}
}

// stamp returns a copy of the metadata carrying the current version and,
// when fresh is set, a new request id.
func (s *State) stamp(fresh bool) protocol.Metadata {
	meta := *s.meta
	meta.RequestID = nil
	if fresh {
		meta.RequestID = id.Ptr(s.newID())
	}
	if s.version != nil {
		meta.LastResponseVersion = id.Ptr(*s.version)
	}
	return meta
}
