package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
)

// UpdateBattleCommand replaces the displayed battle.
type UpdateBattleCommand struct {
	Battle      BattleView `json:"battle"`
	UpdateSound *string    `json:"update_sound,omitempty"`
}

// UpdateQuestCommand replaces the displayed quest screen.
type UpdateQuestCommand struct {
	Quest       QuestView `json:"quest"`
	UpdateSound *string   `json:"update_sound,omitempty"`
}

// WaitCommand pauses for a fixed duration. On the wire it is a bare
// Milliseconds payload.
type WaitCommand struct {
	Duration Milliseconds
}

// MarshalJSON encodes the bare duration.
func (c WaitCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Duration)
}

// UnmarshalJSON decodes the bare duration.
func (c *WaitCommand) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.Duration)
}

// FireProjectileCommand animates a projectile between two objects.
type FireProjectileCommand struct {
	SourceID           GameObjectID    `json:"source_id"`
	TargetID           GameObjectID    `json:"target_id"`
	Projectile         string          `json:"projectile"`
	TravelDuration     *Milliseconds   `json:"travel_duration,omitempty"`
	FireSound          *string         `json:"fire_sound,omitempty"`
	ImpactSound        *string         `json:"impact_sound,omitempty"`
	AdditionalHit      *string         `json:"additional_hit,omitempty"`
	AdditionalHitDelay *Milliseconds   `json:"additional_hit_delay,omitempty"`
	WaitDuration       *Milliseconds   `json:"wait_duration,omitempty"`
	HideOnHit          bool            `json:"hide_on_hit"`
	JumpToPosition     *ObjectPosition `json:"jump_to_position,omitempty"`
}

// DissolveCardCommand plays the dissolve shader on a card.
type DissolveCardCommand struct {
	Target               ClientCardID  `json:"target"`
	Material             string        `json:"material"`
	Reverse              bool          `json:"reverse"`
	Color                DisplayColor  `json:"color"`
	DissolveSpeed        *float32      `json:"dissolve_speed,omitempty"`
	Sound                *string       `json:"sound,omitempty"`
	StartDelay           *Milliseconds `json:"start_delay,omitempty"`
	KeepDissolveMaterial bool          `json:"keep_dissolve_material"`
}

// DisplayGameMessageCommand shows a full-screen message. On the wire it is
// a bare message type string.
type DisplayGameMessageCommand struct {
	Message GameMessageType
}

// MarshalJSON encodes the bare message type.
func (c DisplayGameMessageCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Message)
}

// UnmarshalJSON decodes the bare message type.
func (c *DisplayGameMessageCommand) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.Message)
}

// DisplayEffectCommand plays a particle effect on a target.
type DisplayEffectCommand struct {
	Target   GameObjectID `json:"target"`
	Effect   string       `json:"effect"`
	Duration Milliseconds `json:"duration"`
	Scale    Vector3      `json:"scale"`
	Sound    *string      `json:"sound,omitempty"`
}

// DrawUserCardsCommand animates cards from the deck to the hand.
type DrawUserCardsCommand struct {
	Cards           []CardView   `json:"cards"`
	StaggerInterval Milliseconds `json:"stagger_interval"`
	PauseDuration   Milliseconds `json:"pause_duration"`
}

// DisplayJudgmentCommand plays the judgment phase for a player.
type DisplayJudgmentCommand struct {
	Player   DisplayPlayer `json:"player"`
	NewScore *int64        `json:"new_score,omitempty"`
}

// DisplayDreamwellActivationCommand plays a dreamwell card activation.
type DisplayDreamwellActivationCommand struct {
	Player            DisplayPlayer `json:"player"`
	CardID            ClientCardID  `json:"card_id"`
	NewEnergy         *int64        `json:"new_energy,omitempty"`
	NewProducedEnergy *int64        `json:"new_produced_energy,omitempty"`
}

// DisplayEnemyMessageCommand shows a speech bubble above the enemy.
type DisplayEnemyMessageCommand struct {
	Message      string       `json:"message"`
	ShowDuration Milliseconds `json:"show_duration"`
}

// ToggleThinkingIndicatorCommand shows or hides the opponent thinking
// indicator.
type ToggleThinkingIndicatorCommand struct {
	Show bool `json:"show"`
}

// PlayAudioClipCommand plays a sound and optionally pauses afterwards.
type PlayAudioClipCommand struct {
	Sound         string       `json:"sound"`
	PauseDuration Milliseconds `json:"pause_duration"`
}

// PlayStudioAnimationCommand plays a character animation in a studio.
type PlayStudioAnimationCommand struct {
	StudioType     StudioType       `json:"studio_type"`
	EnterAnimation *StudioAnimation `json:"enter_animation,omitempty"`
	Animation      StudioAnimation  `json:"animation"`
	ExitAnimation  *StudioAnimation `json:"exit_animation,omitempty"`
}

// PlayMecanimAnimationCommand sets animator parameters on a quest site
// character.
type PlayMecanimAnimationCommand struct {
	SiteID     uuid.UUID       `json:"site_id"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// MoveCardsWithCustomAnimationCommand moves cards with a named choreography.
type MoveCardsWithCustomAnimationCommand struct {
	Cards           []CardView         `json:"cards"`
	Animation       MoveCardsAnimation `json:"animation"`
	Destination     json.RawMessage    `json:"destination,omitempty"`
	StaggerInterval Milliseconds       `json:"stagger_interval"`
	PauseDuration   Milliseconds       `json:"pause_duration"`
	CardTrail       *string            `json:"card_trail,omitempty"`
}

// SetCardTrailCommand attaches a trail to cards for a duration.
type SetCardTrailCommand struct {
	CardIDs  []ClientCardID `json:"card_ids"`
	Trail    string         `json:"trail"`
	Duration Milliseconds   `json:"duration"`
}

// ShuffleVoidIntoDeckCommand animates a player's void into their deck.
type ShuffleVoidIntoDeckCommand struct {
	Player DisplayPlayer `json:"player"`
}

// DisplayArrow is one targeting arrow.
type DisplayArrow struct {
	Source GameObjectID `json:"source"`
	Target GameObjectID `json:"target"`
	Color  ArrowStyle   `json:"color"`
}

// DisplayArrowsCommand replaces the displayed arrows.
type DisplayArrowsCommand struct {
	Arrows []DisplayArrow `json:"arrows"`
}

// UpdateScreenOverlayCommand replaces the screen overlay. An empty overlay
// clears it.
type UpdateScreenOverlayCommand struct {
	ScreenOverlay json.RawMessage `json:"screen_overlay,omitempty"`
}

func (UpdateBattleCommand) Kind() CommandKind            { return KindUpdateBattle }
func (UpdateQuestCommand) Kind() CommandKind             { return KindUpdateQuest }
func (WaitCommand) Kind() CommandKind                    { return KindWait }
func (FireProjectileCommand) Kind() CommandKind          { return KindFireProjectile }
func (DissolveCardCommand) Kind() CommandKind            { return KindDissolveCard }
func (DisplayGameMessageCommand) Kind() CommandKind      { return KindDisplayGameMessage }
func (DisplayEffectCommand) Kind() CommandKind           { return KindDisplayEffect }
func (DrawUserCardsCommand) Kind() CommandKind           { return KindDrawUserCards }
func (DisplayJudgmentCommand) Kind() CommandKind         { return KindDisplayJudgment }
func (DisplayEnemyMessageCommand) Kind() CommandKind     { return KindDisplayEnemyMessage }
func (ToggleThinkingIndicatorCommand) Kind() CommandKind { return KindToggleThinkingIndicator }
func (PlayAudioClipCommand) Kind() CommandKind           { return KindPlayAudioClip }
func (PlayStudioAnimationCommand) Kind() CommandKind     { return KindPlayStudioAnimation }
func (PlayMecanimAnimationCommand) Kind() CommandKind    { return KindPlayMecanimAnimation }
func (SetCardTrailCommand) Kind() CommandKind            { return KindSetCardTrail }
func (ShuffleVoidIntoDeckCommand) Kind() CommandKind     { return KindShuffleVoidIntoDeck }
func (DisplayArrowsCommand) Kind() CommandKind           { return KindDisplayArrows }
func (UpdateScreenOverlayCommand) Kind() CommandKind     { return KindUpdateScreenOverlay }

func (DisplayDreamwellActivationCommand) Kind() CommandKind {
	return KindDisplayDreamwellActivation
}

func (MoveCardsWithCustomAnimationCommand) Kind() CommandKind {
	return KindMoveCardsWithCustomAnimation
}

func (UpdateBattleCommand) isCommand()                 {}
func (UpdateQuestCommand) isCommand()                  {}
func (WaitCommand) isCommand()                         {}
func (FireProjectileCommand) isCommand()               {}
func (DissolveCardCommand) isCommand()                 {}
func (DisplayGameMessageCommand) isCommand()           {}
func (DisplayEffectCommand) isCommand()                {}
func (DrawUserCardsCommand) isCommand()                {}
func (DisplayJudgmentCommand) isCommand()              {}
func (DisplayDreamwellActivationCommand) isCommand()   {}
func (DisplayEnemyMessageCommand) isCommand()          {}
func (ToggleThinkingIndicatorCommand) isCommand()      {}
func (PlayAudioClipCommand) isCommand()                {}
func (PlayStudioAnimationCommand) isCommand()          {}
func (PlayMecanimAnimationCommand) isCommand()         {}
func (MoveCardsWithCustomAnimationCommand) isCommand() {}
func (SetCardTrailCommand) isCommand()                 {}
func (ShuffleVoidIntoDeckCommand) isCommand()          {}
func (DisplayArrowsCommand) isCommand()                {}
func (UpdateScreenOverlayCommand) isCommand()          {}

// ScreenAnchor names the on-screen element a node is pinned to.
type ScreenAnchor struct {
	SiteCharacter *uuid.UUID `json:"SiteCharacter,omitempty"`
}

// AnchorToScreenPositionCommand pins a UI node to a screen anchor. A nil
// node clears the anchor. With ShowDuration the node is removed after that
// long.
type AnchorToScreenPositionCommand struct {
	Node         json.RawMessage `json:"node,omitempty"`
	Anchor       ScreenAnchor    `json:"anchor"`
	ShowDuration *Milliseconds   `json:"show_duration,omitempty"`
}

func (AnchorToScreenPositionCommand) Kind() CommandKind { return KindAnchorToScreenPosition }
func (AnchorToScreenPositionCommand) isCommand()       {}

// UnknownCommand carries a command whose tag this client does not know.
// It round-trips unchanged and has no registered handler.
type UnknownCommand struct {
	Tag     CommandKind
	Payload json.RawMessage
}

func (c UnknownCommand) Kind() CommandKind { return c.Tag }
func (UnknownCommand) isCommand()          {}
