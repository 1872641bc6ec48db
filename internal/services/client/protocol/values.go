package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClientCardID identifies a card on screen. The engine chooses the value;
// the client treats it as opaque.
type ClientCardID string

// DisplayPlayer names a player from the viewer's perspective.
type DisplayPlayer string

const (
	DisplayUser  DisplayPlayer = "User"
	DisplayEnemy DisplayPlayer = "Enemy"
)

// PlayerName names a seat in the battle, independent of the viewer.
type PlayerName string

const (
	PlayerOne PlayerName = "One"
	PlayerTwo PlayerName = "Two"
)

// Milliseconds is a duration as the engine encodes it.
type Milliseconds struct {
	Value uint32 `json:"milliseconds_value"`
}

// Ms builds a Milliseconds value.
func Ms(value uint32) Milliseconds {
	return Milliseconds{Value: value}
}

// Duration converts to a time.Duration.
func (m Milliseconds) Duration() time.Duration {
	return time.Duration(m.Value) * time.Millisecond
}

// DurationOr converts an optional value, using fallback when m is nil.
func DurationOr(m *Milliseconds, fallback time.Duration) time.Duration {
	if m == nil {
		return fallback
	}
	return m.Duration()
}

// DisplayColor is an RGBA color in the 0..1 range.
type DisplayColor struct {
	Red   float32 `json:"red"`
	Green float32 `json:"green"`
	Blue  float32 `json:"blue"`
	Alpha float32 `json:"alpha"`
}

// Vector3 is a local scale or offset.
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// GameMessageType is a full-screen message shown between turns.
type GameMessageType string

const (
	MessageYourTurn  GameMessageType = "YourTurn"
	MessageEnemyTurn GameMessageType = "EnemyTurn"
	MessageVictory   GameMessageType = "Victory"
	MessageDefeat    GameMessageType = "Defeat"
)

// ArrowStyle colors a targeting arrow.
type ArrowStyle string

const (
	ArrowRed   ArrowStyle = "Red"
	ArrowBlue  ArrowStyle = "Blue"
	ArrowGreen ArrowStyle = "Green"
)

// StudioType selects the 3D studio a character animation plays in.
type StudioType string

const (
	StudioUserStatus        StudioType = "UserStatus"
	StudioEnemyStatus       StudioType = "EnemyStatus"
	StudioUserIdentityCard  StudioType = "UserIdentityCard"
	StudioEnemyIdentityCard StudioType = "EnemyIdentityCard"
)

// StudioAnimation names one clip of a studio character.
type StudioAnimation struct {
	Name string `json:"name"`
}

// MoveCardsAnimation selects a custom card movement choreography.
type MoveCardsAnimation string

const (
	MoveDefault                  MoveCardsAnimation = "DefaultAnimation"
	MoveShowAtDrawnCardsPosition MoveCardsAnimation = "ShowAtDrawnCardsPosition"
	MoveShowInDraftPickLayout    MoveCardsAnimation = "ShowInDraftPickLayout"
	MoveShowInShopLayout         MoveCardsAnimation = "ShowInShopLayout"
	MoveHideShopLayout           MoveCardsAnimation = "HideShopLayout"
)

// singleKey decodes an externally tagged value: an object with exactly one
// key. It returns the key and the raw payload.
func singleKey(data []byte) (string, json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(envelope) != 1 {
		return "", nil, fmt.Errorf("%w: want exactly one variant key, got %d", ErrMalformedEnvelope, len(envelope))
	}
	for key, raw := range envelope {
		return key, raw, nil
	}
	return "", nil, ErrMalformedEnvelope
}

// tagged encodes payload under key as an externally tagged value.
func tagged(key string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{key: raw})
}
