package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrMalformedEnvelope indicates a tagged value without exactly one key.
	ErrMalformedEnvelope = errors.New("malformed variant envelope")
	// ErrUnknownCommand indicates a command key this client does not know.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownAction indicates a game action key this client does not know.
	ErrUnknownAction = errors.New("unknown game action")
)

// CommandKind names a command variant. The value is the wire tag.
type CommandKind string

const (
	KindUpdateBattle                 CommandKind = "UpdateBattle"
	KindUpdateQuest                  CommandKind = "UpdateQuest"
	KindWait                         CommandKind = "Wait"
	KindFireProjectile               CommandKind = "FireProjectile"
	KindDissolveCard                 CommandKind = "DissolveCard"
	KindDisplayGameMessage           CommandKind = "DisplayGameMessage"
	KindDisplayEffect                CommandKind = "DisplayEffect"
	KindDrawUserCards                CommandKind = "DrawUserCards"
	KindDisplayJudgment              CommandKind = "DisplayJudgment"
	KindDisplayDreamwellActivation   CommandKind = "DisplayDreamwellActivation"
	KindDisplayEnemyMessage          CommandKind = "DisplayEnemyMessage"
	KindToggleThinkingIndicator      CommandKind = "ToggleThinkingIndicator"
	KindPlayAudioClip                CommandKind = "PlayAudioClip"
	KindPlayStudioAnimation          CommandKind = "PlayStudioAnimation"
	KindPlayMecanimAnimation         CommandKind = "PlayMecanimAnimation"
	KindMoveCardsWithCustomAnimation CommandKind = "MoveCardsWithCustomAnimation"
	KindSetCardTrail                 CommandKind = "SetCardTrail"
	KindShuffleVoidIntoDeck          CommandKind = "ShuffleVoidIntoDeck"
	KindDisplayArrows                CommandKind = "DisplayArrows"
	KindUpdateScreenOverlay          CommandKind = "UpdateScreenOverlay"
	KindAnchorToScreenPosition       CommandKind = "AnchorToScreenPosition"
)

// Command is one presentation instruction. The set of implementations is
// closed; see the Kind constants. Groups decoded from the wire may also
// hold an UnknownCommand for tags newer than this client.
type Command interface {
	Kind() CommandKind
	isCommand()
}

// IsStateUpdate reports whether cmd replaces displayed state. State updates
// run before the other commands of their group so later commands can
// address the entities they create.
func IsStateUpdate(cmd Command) bool {
	if cmd == nil {
		return false
	}
	switch cmd.Kind() {
	case KindUpdateBattle, KindUpdateQuest:
		return true
	default:
		return false
	}
}

var commandPrototypes = map[CommandKind]Command{
	KindUpdateBattle:                 UpdateBattleCommand{},
	KindUpdateQuest:                  UpdateQuestCommand{},
	KindWait:                         WaitCommand{},
	KindFireProjectile:               FireProjectileCommand{},
	KindDissolveCard:                 DissolveCardCommand{},
	KindDisplayGameMessage:           DisplayGameMessageCommand{},
	KindDisplayEffect:                DisplayEffectCommand{},
	KindDrawUserCards:                DrawUserCardsCommand{},
	KindDisplayJudgment:              DisplayJudgmentCommand{},
	KindDisplayDreamwellActivation:   DisplayDreamwellActivationCommand{},
	KindDisplayEnemyMessage:          DisplayEnemyMessageCommand{},
	KindToggleThinkingIndicator:      ToggleThinkingIndicatorCommand{},
	KindPlayAudioClip:                PlayAudioClipCommand{},
	KindPlayStudioAnimation:          PlayStudioAnimationCommand{},
	KindPlayMecanimAnimation:         PlayMecanimAnimationCommand{},
	KindMoveCardsWithCustomAnimation: MoveCardsWithCustomAnimationCommand{},
	KindSetCardTrail:                 SetCardTrailCommand{},
	KindShuffleVoidIntoDeck:          ShuffleVoidIntoDeckCommand{},
	KindDisplayArrows:                DisplayArrowsCommand{},
	KindUpdateScreenOverlay:          UpdateScreenOverlayCommand{},
	KindAnchorToScreenPosition:       AnchorToScreenPositionCommand{},
}

func decodeCommand(kind CommandKind, raw json.RawMessage) (Command, error) {
	prototype, ok := commandPrototypes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, kind)
	}
	target := reflect.New(reflect.TypeOf(prototype))
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return nil, err
	}
	return target.Elem().Interface().(Command), nil
}

// Kinds lists every known command kind.
func Kinds() []CommandKind {
	return []CommandKind{
		KindUpdateBattle, KindUpdateQuest, KindWait, KindFireProjectile,
		KindDissolveCard, KindDisplayGameMessage, KindDisplayEffect,
		KindDrawUserCards, KindDisplayJudgment, KindDisplayDreamwellActivation,
		KindDisplayEnemyMessage, KindToggleThinkingIndicator, KindPlayAudioClip,
		KindPlayStudioAnimation, KindPlayMecanimAnimation,
		KindMoveCardsWithCustomAnimation, KindSetCardTrail,
		KindShuffleVoidIntoDeck, KindDisplayArrows, KindUpdateScreenOverlay,
		KindAnchorToScreenPosition,
	}
}

// MarshalCommand encodes cmd as an externally tagged value.
func MarshalCommand(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, errors.New("marshal command: nil command")
	}
	if unknown, ok := cmd.(UnknownCommand); ok {
		return taggedRaw(string(unknown.Tag), unknown.Payload)
	}
	if _, ok := commandPrototypes[cmd.Kind()]; !ok {
		return nil, fmt.Errorf("marshal command: %w: %q", ErrUnknownCommand, cmd.Kind())
	}
	return tagged(string(cmd.Kind()), cmd)
}

// UnmarshalCommand decodes one externally tagged command.
func UnmarshalCommand(data []byte) (Command, error) {
	key, raw, err := singleKey(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal command: %w", err)
	}
	cmd, err := decodeCommand(CommandKind(key), raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal command %s: %w", key, err)
	}
	return cmd, nil
}

// CommandGroup is a set of commands that start together.
type CommandGroup struct {
	Commands []Command
}

type wireGroup struct {
	Commands []json.RawMessage `json:"commands"`
}

// MarshalJSON encodes the group.
func (g CommandGroup) MarshalJSON() ([]byte, error) {
	out := wireGroup{Commands: make([]json.RawMessage, 0, len(g.Commands))}
	for _, cmd := range g.Commands {
		raw, err := MarshalCommand(cmd)
		if err != nil {
			return nil, err
		}
		out.Commands = append(out.Commands, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the group. Commands with an unknown tag are kept
// as UnknownCommand; malformed envelopes and payloads fail the group.
func (g *CommandGroup) UnmarshalJSON(data []byte) error {
	var in wireGroup
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	commands := make([]Command, 0, len(in.Commands))
	for _, raw := range in.Commands {
		cmd, err := UnmarshalCommand(raw)
		if errors.Is(err, ErrUnknownCommand) {
			key, payload, _ := singleKey(raw)
			commands = append(commands, UnknownCommand{Tag: CommandKind(key), Payload: cloneRaw(payload)})
			continue
		}
		if err != nil {
			return err
		}
		commands = append(commands, cmd)
	}
	g.Commands = commands
	return nil
}

// CommandSequence is an ordered list of groups.
type CommandSequence struct {
	Groups []CommandGroup `json:"groups"`
}

// Empty reports whether the sequence contains no commands at all.
func (s CommandSequence) Empty() bool {
	for _, group := range s.Groups {
		if len(group.Commands) > 0 {
			return false
		}
	}
	return true
}

// Len returns the total number of commands across groups.
func (s CommandSequence) Len() int {
	n := 0
	for _, group := range s.Groups {
		n += len(group.Commands)
	}
	return n
}

// FromCommand builds a sequence with one group holding cmd.
func FromCommand(cmd Command) CommandSequence {
	return CommandSequence{Groups: []CommandGroup{{Commands: []Command{cmd}}}}
}

// Sequential builds one group per command, applied in order.
func Sequential(commands ...Command) CommandSequence {
	groups := make([]CommandGroup, 0, len(commands))
	for _, cmd := range commands {
		groups = append(groups, CommandGroup{Commands: []Command{cmd}})
	}
	return CommandSequence{Groups: groups}
}

// Parallel builds a single group holding every command.
func Parallel(commands ...Command) CommandSequence {
	return CommandSequence{Groups: []CommandGroup{{Commands: append([]Command(nil), commands...)}}}
}

// FromGroups builds a sequence from explicit groups.
func FromGroups(groups ...CommandGroup) CommandSequence {
	return CommandSequence{Groups: append([]CommandGroup(nil), groups...)}
}
