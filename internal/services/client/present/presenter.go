// Package present is a headless presentation layer. It keeps a board of
// addressable entities, plays every command kind with timing derived from
// its payload, and writes what a player would see as text lines.
package present

import (
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/text/message"

	"github.com/louisbranch/dreamtides/internal/platform/i18n/catalog"
	"github.com/louisbranch/dreamtides/internal/services/client/dispatch"
	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/task"
)

const (
	defaultProjectileTravel = 300 * time.Millisecond
	dissolveDuration        = time.Second
	gameMessageHold         = 1500 * time.Millisecond
	judgmentDuration        = time.Second
	dreamwellDuration       = time.Second
	studioClipDuration      = 500 * time.Millisecond
	shuffleDuration         = 500 * time.Millisecond
)

// Options configures a Presenter.
type Options struct {
	Locale string
	Out    io.Writer
	Logf   func(string, ...any)
}

// Presenter renders commands to text.
type Presenter struct {
	board   *Board
	printer *message.Printer
	out     io.Writer
	logf    func(string, ...any)
}

// New builds a presenter using the embedded message catalogs.
func New(opts Options) (*Presenter, error) {
	bundle, err := catalog.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("load message catalog: %w", err)
	}
	return NewWithBundle(bundle, opts), nil
}

// NewWithBundle builds a presenter using bundle.
func NewWithBundle(bundle *catalog.Bundle, opts Options) *Presenter {
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Presenter{
		board:   newBoard(),
		printer: bundle.Printer(opts.Locale),
		out:     out,
		logf:    logf,
	}
}

// Board returns the live board.
func (p *Presenter) Board() *Board {
	return p.board
}

// Register installs a handler for every command kind on d.
func (p *Presenter) Register(d *dispatch.Dispatcher) error {
	handlers := map[protocol.CommandKind]dispatch.HandlerFunc{
		protocol.KindUpdateBattle:                 p.updateBattle,
		protocol.KindUpdateQuest:                  p.updateQuest,
		protocol.KindFireProjectile:               p.fireProjectile,
		protocol.KindDissolveCard:                 p.dissolveCard,
		protocol.KindDisplayGameMessage:           p.displayGameMessage,
		protocol.KindDisplayEffect:                p.displayEffect,
		protocol.KindDrawUserCards:                p.drawUserCards,
		protocol.KindDisplayJudgment:              p.displayJudgment,
		protocol.KindDisplayDreamwellActivation:   p.displayDreamwell,
		protocol.KindDisplayEnemyMessage:          p.displayEnemyMessage,
		protocol.KindToggleThinkingIndicator:      p.toggleThinking,
		protocol.KindPlayAudioClip:                p.playAudioClip,
		protocol.KindPlayStudioAnimation:          p.playStudioAnimation,
		protocol.KindPlayMecanimAnimation:         p.playMecanimAnimation,
		protocol.KindMoveCardsWithCustomAnimation: p.moveCards,
		protocol.KindSetCardTrail:                 p.setCardTrail,
		protocol.KindShuffleVoidIntoDeck:          p.shuffleVoid,
		protocol.KindDisplayArrows:                p.displayArrows,
		protocol.KindUpdateScreenOverlay:          p.updateOverlay,
		protocol.KindAnchorToScreenPosition:       p.anchorToScreen,
	}
	for _, kind := range protocol.Kinds() {
		handler, ok := handlers[kind]
		if !ok {
			continue
		}
		if err := d.Register(kind, handler); err != nil {
			return err
		}
	}
	return nil
}

func (p *Presenter) say(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	p.board.Lines = append(p.board.Lines, line)
	fmt.Fprintln(p.out, line)
}

func (p *Presenter) sayKey(key string, args ...any) {
	p.say("%s", p.printer.Sprintf(key, args...))
}

func (p *Presenter) player(player protocol.DisplayPlayer) string {
	if player == protocol.DisplayEnemy {
		return p.printer.Sprintf("player.enemy")
	}
	return p.printer.Sprintf("player.user")
}

func hold(animate bool, now time.Time, d time.Duration) task.Future {
	if !animate {
		return task.Resolved()
	}
	return task.After(now, d)
}

func (p *Presenter) missing(kind protocol.CommandKind, target fmt.Stringer) task.Future {
	p.logf("present: %s target %s not found, skipping", kind, target)
	return task.Resolved()
}

type cardRef protocol.ClientCardID

func (c cardRef) String() string { return "card:" + string(c) }

type siteRef struct{}

func (siteRef) String() string { return "site:none" }
