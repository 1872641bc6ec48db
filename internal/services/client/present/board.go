package present

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
)

// Board is the presenter's view of the screen: the entities created by
// state updates and the transient decorations commands attach to them.
type Board struct {
	Battle    *protocol.BattleView
	Quest     *protocol.QuestView
	Cards     map[protocol.ClientCardID]protocol.CardView
	Dissolved map[protocol.ClientCardID]bool
	Trails    map[protocol.ClientCardID]string
	Arrows    []protocol.DisplayArrow
	Overlay   []byte
	Anchors   map[uuid.UUID]Anchor
	Thinking  bool
	Lines     []string
}

func newBoard() *Board {
	return &Board{
		Cards:     make(map[protocol.ClientCardID]protocol.CardView),
		Dissolved: make(map[protocol.ClientCardID]bool),
		Trails:    make(map[protocol.ClientCardID]string),
		Anchors:   make(map[uuid.UUID]Anchor),
	}
}

// Anchor is a node pinned to a site character. A zero Until keeps it until
// replaced or cleared.
type Anchor struct {
	Node  json.RawMessage
	Until time.Time
}

// replaceCards makes cards the complete addressable set.
func (b *Board) replaceCards(cards []protocol.CardView) {
	b.Cards = make(map[protocol.ClientCardID]protocol.CardView, len(cards))
	b.Dissolved = make(map[protocol.ClientCardID]bool)
	for _, card := range cards {
		b.Cards[card.ID] = card
	}
	for id := range b.Trails {
		if _, ok := b.Cards[id]; !ok {
			delete(b.Trails, id)
		}
	}
}

func (b *Board) upsertCards(cards []protocol.CardView) {
	for _, card := range cards {
		b.Cards[card.ID] = card
	}
}

// Has reports whether target resolves to something on screen. Decks, voids
// and avatars always exist once a battle is shown; quest objects once a
// quest is shown.
func (b *Board) Has(target protocol.GameObjectID) bool {
	switch target.Kind {
	case protocol.ObjectCard:
		_, ok := b.Cards[target.Card]
		return ok
	case protocol.ObjectDeck, protocol.ObjectVoid, protocol.ObjectAvatar:
		return b.Battle != nil
	case protocol.ObjectQuestObject:
		return b.Quest != nil
	default:
		return false
	}
}

// CardIDs returns the addressable card ids, sorted.
func (b *Board) CardIDs() []protocol.ClientCardID {
	out := make([]protocol.ClientCardID, 0, len(b.Cards))
	for id := range b.Cards {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
