package protocol

import (
	"encoding/json"
	"fmt"
)

// GameObjectKind discriminates GameObjectID variants.
type GameObjectKind string

const (
	ObjectCard        GameObjectKind = "CardId"
	ObjectDeck        GameObjectKind = "Deck"
	ObjectVoid        GameObjectKind = "Void"
	ObjectAvatar      GameObjectKind = "Avatar"
	ObjectQuestObject GameObjectKind = "QuestObject"
)

// QuestObjectID names a fixed object on the quest screen.
type QuestObjectID string

const (
	QuestEssenceTotal QuestObjectID = "EssenceTotal"
	QuestDeck         QuestObjectID = "QuestDeck"
)

// GameObjectID addresses something a command can target: a card, a
// player's deck, void or avatar, or a quest screen object. Only the field
// matching Kind is meaningful.
type GameObjectID struct {
	Kind   GameObjectKind
	Card   ClientCardID
	Player DisplayPlayer
	Quest  QuestObjectID
}

// CardObject addresses a card.
func CardObject(card ClientCardID) GameObjectID {
	return GameObjectID{Kind: ObjectCard, Card: card}
}

// DeckObject addresses a player's deck.
func DeckObject(player DisplayPlayer) GameObjectID {
	return GameObjectID{Kind: ObjectDeck, Player: player}
}

// VoidObject addresses a player's void.
func VoidObject(player DisplayPlayer) GameObjectID {
	return GameObjectID{Kind: ObjectVoid, Player: player}
}

// AvatarObject addresses a player's avatar.
func AvatarObject(player DisplayPlayer) GameObjectID {
	return GameObjectID{Kind: ObjectAvatar, Player: player}
}

// QuestObject addresses a quest screen object.
func QuestObject(quest QuestObjectID) GameObjectID {
	return GameObjectID{Kind: ObjectQuestObject, Quest: quest}
}

// String renders the id for logs.
func (g GameObjectID) String() string {
	switch g.Kind {
	case ObjectCard:
		return "card:" + string(g.Card)
	case ObjectDeck, ObjectVoid, ObjectAvatar:
		return string(g.Kind) + ":" + string(g.Player)
	case ObjectQuestObject:
		return "quest:" + string(g.Quest)
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the id as an externally tagged value.
func (g GameObjectID) MarshalJSON() ([]byte, error) {
	switch g.Kind {
	case ObjectCard:
		return tagged(string(g.Kind), g.Card)
	case ObjectDeck, ObjectVoid, ObjectAvatar:
		return tagged(string(g.Kind), g.Player)
	case ObjectQuestObject:
		return tagged(string(g.Kind), g.Quest)
	default:
		return nil, fmt.Errorf("game object id: unknown kind %q", g.Kind)
	}
}

// UnmarshalJSON decodes an externally tagged id.
func (g *GameObjectID) UnmarshalJSON(data []byte) error {
	key, raw, err := singleKey(data)
	if err != nil {
		return fmt.Errorf("game object id: %w", err)
	}
	out := GameObjectID{Kind: GameObjectKind(key)}
	switch out.Kind {
	case ObjectCard:
		err = json.Unmarshal(raw, &out.Card)
	case ObjectDeck, ObjectVoid, ObjectAvatar:
		err = json.Unmarshal(raw, &out.Player)
	case ObjectQuestObject:
		err = json.Unmarshal(raw, &out.Quest)
	default:
		return fmt.Errorf("game object id: unknown kind %q", key)
	}
	if err != nil {
		return fmt.Errorf("game object id %s: %w", key, err)
	}
	*g = out
	return nil
}
