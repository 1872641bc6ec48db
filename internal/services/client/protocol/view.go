package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ObjectPosition places an object on screen. Position is engine-defined and
// passed through to the layout collaborator untouched.
type ObjectPosition struct {
	Position   json.RawMessage `json:"position"`
	SortingKey uint32          `json:"sorting_key"`
}

// CardView is the renderable state of one card.
type CardView struct {
	ID       ClientCardID    `json:"id"`
	Position ObjectPosition  `json:"position"`
	Revealed json.RawMessage `json:"revealed,omitempty"`
	Prefab   string          `json:"prefab,omitempty"`
}

// PlayerView summarizes one player's public state.
type PlayerView struct {
	Score          int64 `json:"score"`
	Energy         int64 `json:"energy"`
	ProducedEnergy int64 `json:"produced_energy"`
	TotalSpark     int64 `json:"total_spark"`
	CanAct         bool  `json:"can_act"`
}

// BattleView is a complete snapshot of a battle. Applying it makes every
// card in Cards addressable by later commands.
type BattleView struct {
	ID        uuid.UUID       `json:"id"`
	User      PlayerView      `json:"user"`
	Enemy     PlayerView      `json:"enemy"`
	Cards     []CardView      `json:"cards"`
	Interface json.RawMessage `json:"interface,omitempty"`
}

// QuestView is a snapshot of the quest (map) screen.
type QuestView struct {
	Cards        []CardView      `json:"cards"`
	EssenceTotal int64           `json:"essence_total"`
	Interface    json.RawMessage `json:"interface,omitempty"`
}
