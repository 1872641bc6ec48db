package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActionKind names a GameAction variant. The value is the wire tag.
type ActionKind string

const (
	ActionNoOp          ActionKind = "NoOp"
	ActionBattle        ActionKind = "BattleAction"
	ActionDebug         ActionKind = "DebugAction"
	ActionBattleDisplay ActionKind = "BattleDisplayAction"
	ActionUndo          ActionKind = "Undo"
)

// GameAction is a player intent sent to the engine. The set of
// implementations is closed.
type GameAction interface {
	ActionKind() ActionKind
	isAction()
}

// NoOpAction does nothing. It encodes as the bare string "NoOp".
type NoOpAction struct{}

// BattleAction carries an engine-defined battle action.
type BattleAction struct {
	Payload json.RawMessage
}

// DebugAction carries an engine-defined debug action.
type DebugAction struct {
	Payload json.RawMessage
}

// BattleDisplayAction carries a client display interaction the engine
// tracks, such as browsing a pile.
type BattleDisplayAction struct {
	Payload json.RawMessage
}

// UndoAction reverts the last action of a player.
type UndoAction struct {
	Player PlayerName
}

func (NoOpAction) ActionKind() ActionKind          { return ActionNoOp }
func (BattleAction) ActionKind() ActionKind        { return ActionBattle }
func (DebugAction) ActionKind() ActionKind         { return ActionDebug }
func (BattleDisplayAction) ActionKind() ActionKind { return ActionBattleDisplay }
func (UndoAction) ActionKind() ActionKind          { return ActionUndo }

func (NoOpAction) isAction()          {}
func (BattleAction) isAction()        {}
func (DebugAction) isAction()         {}
func (BattleDisplayAction) isAction() {}
func (UndoAction) isAction()          {}

// MarshalAction encodes action as an externally tagged value.
func MarshalAction(action GameAction) ([]byte, error) {
	switch a := action.(type) {
	case nil:
		return nil, errors.New("marshal action: nil action")
	case NoOpAction:
		return json.Marshal(string(ActionNoOp))
	case BattleAction:
		return taggedRaw(string(ActionBattle), a.Payload)
	case DebugAction:
		return taggedRaw(string(ActionDebug), a.Payload)
	case BattleDisplayAction:
		return taggedRaw(string(ActionBattleDisplay), a.Payload)
	case UndoAction:
		return tagged(string(ActionUndo), a.Player)
	default:
		return nil, fmt.Errorf("marshal action: %w: %T", ErrUnknownAction, action)
	}
}

// UnmarshalAction decodes an externally tagged action. Unit variants may
// arrive as a bare string.
func UnmarshalAction(data []byte) (GameAction, error) {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		if ActionKind(unit) == ActionNoOp {
			return NoOpAction{}, nil
		}
		return nil, fmt.Errorf("unmarshal action: %w: %q", ErrUnknownAction, unit)
	}
	key, raw, err := singleKey(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}
	switch ActionKind(key) {
	case ActionNoOp:
		return NoOpAction{}, nil
	case ActionBattle:
		return BattleAction{Payload: cloneRaw(raw)}, nil
	case ActionDebug:
		return DebugAction{Payload: cloneRaw(raw)}, nil
	case ActionBattleDisplay:
		return BattleDisplayAction{Payload: cloneRaw(raw)}, nil
	case ActionUndo:
		var player PlayerName
		if err := json.Unmarshal(raw, &player); err != nil {
			return nil, fmt.Errorf("unmarshal action Undo: %w", err)
		}
		return UndoAction{Player: player}, nil
	default:
		return nil, fmt.Errorf("unmarshal action: %w: %q", ErrUnknownAction, key)
	}
}

func taggedRaw(key string, payload json.RawMessage) ([]byte, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return json.Marshal(map[string]json.RawMessage{key: payload})
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
