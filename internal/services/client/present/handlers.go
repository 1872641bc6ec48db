package present

import (
	"time"

	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/task"
)

func (p *Presenter) updateBattle(cmd protocol.Command, _ bool, _ time.Time) task.Future {
	c := cmd.(protocol.UpdateBattleCommand)
	battle := c.Battle
	p.board.Battle = &battle
	p.board.replaceCards(battle.Cards)
	return task.Resolved()
}

func (p *Presenter) updateQuest(cmd protocol.Command, _ bool, _ time.Time) task.Future {
	c := cmd.(protocol.UpdateQuestCommand)
	quest := c.Quest
	p.board.Quest = &quest
	p.board.replaceCards(quest.Cards)
	return task.Resolved()
}

func (p *Presenter) fireProjectile(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.FireProjectileCommand)
	if !p.board.Has(c.SourceID) {
		return p.missing(cmd.Kind(), c.SourceID)
	}
	if !p.board.Has(c.TargetID) {
		return p.missing(cmd.Kind(), c.TargetID)
	}
	d := protocol.DurationOr(c.TravelDuration, defaultProjectileTravel)
	if c.AdditionalHit != nil {
		d += protocol.DurationOr(c.AdditionalHitDelay, 0)
	}
	d += protocol.DurationOr(c.WaitDuration, 0)
	if c.HideOnHit && c.SourceID.Kind == protocol.ObjectCard {
		p.board.Dissolved[c.SourceID.Card] = true
	}
	return hold(animate, now, d)
}

func (p *Presenter) dissolveCard(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.DissolveCardCommand)
	if _, ok := p.board.Cards[c.Target]; !ok {
		return p.missing(cmd.Kind(), cardRef(c.Target))
	}
	d := dissolveDuration
	if c.DissolveSpeed != nil && *c.DissolveSpeed > 0 {
		d = time.Duration(float64(d) / float64(*c.DissolveSpeed))
	}
	d += protocol.DurationOr(c.StartDelay, 0)
	p.board.Dissolved[c.Target] = !c.Reverse
	return hold(animate, now, d)
}

func (p *Presenter) displayGameMessage(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.DisplayGameMessageCommand)
	switch c.Message {
	case protocol.MessageYourTurn:
		p.sayKey("game_message.your_turn")
	case protocol.MessageEnemyTurn:
		p.sayKey("game_message.enemy_turn")
	case protocol.MessageVictory:
		p.sayKey("game_message.victory")
	case protocol.MessageDefeat:
		p.sayKey("game_message.defeat")
	default:
		p.sayKey("game_message.unknown", string(c.Message))
	}
	return hold(animate, now, gameMessageHold)
}

func (p *Presenter) displayEffect(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.DisplayEffectCommand)
	if !p.board.Has(c.Target) {
		return p.missing(cmd.Kind(), c.Target)
	}
	return hold(animate, now, c.Duration.Duration())
}

func (p *Presenter) drawUserCards(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.DrawUserCardsCommand)
	p.board.upsertCards(c.Cards)
	d := time.Duration(len(c.Cards))*c.StaggerInterval.Duration() + c.PauseDuration.Duration()
	return hold(animate, now, d)
}

func (p *Presenter) displayJudgment(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.DisplayJudgmentCommand)
	if c.NewScore != nil {
		if p.board.Battle != nil {
			if c.Player == protocol.DisplayEnemy {
				p.board.Battle.Enemy.Score = *c.NewScore
			} else {
				p.board.Battle.User.Score = *c.NewScore
			}
		}
		p.sayKey("judgment.score", p.player(c.Player), *c.NewScore)
	} else {
		p.sayKey("judgment.plain", p.player(c.Player))
	}
	return hold(animate, now, judgmentDuration)
}

func (p *Presenter) displayDreamwell(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.DisplayDreamwellActivationCommand)
	if _, ok := p.board.Cards[c.CardID]; !ok {
		return p.missing(cmd.Kind(), cardRef(c.CardID))
	}
	if c.NewEnergy != nil {
		if p.board.Battle != nil {
			view := &p.board.Battle.User
			if c.Player == protocol.DisplayEnemy {
				view = &p.board.Battle.Enemy
			}
			view.Energy = *c.NewEnergy
			if c.NewProducedEnergy != nil {
				view.ProducedEnergy = *c.NewProducedEnergy
			}
		}
		p.sayKey("dreamwell.energy", p.player(c.Player), *c.NewEnergy)
	} else {
		p.sayKey("dreamwell.plain", p.player(c.Player))
	}
	return hold(animate, now, dreamwellDuration)
}

func (p *Presenter) displayEnemyMessage(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.DisplayEnemyMessageCommand)
	p.sayKey("enemy.says", c.Message)
	return hold(animate, now, c.ShowDuration.Duration())
}

func (p *Presenter) toggleThinking(cmd protocol.Command, _ bool, _ time.Time) task.Future {
	c := cmd.(protocol.ToggleThinkingIndicatorCommand)
	if p.board.Thinking != c.Show {
		if c.Show {
			p.sayKey("thinking.on")
		} else {
			p.sayKey("thinking.off")
		}
	}
	p.board.Thinking = c.Show
	return task.Resolved()
}

func (p *Presenter) playAudioClip(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.PlayAudioClipCommand)
	return hold(animate, now, c.PauseDuration.Duration())
}

func (p *Presenter) playStudioAnimation(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.PlayStudioAnimationCommand)
	clips := 1
	if c.EnterAnimation != nil {
		clips++
	}
	if c.ExitAnimation != nil {
		clips++
	}
	return hold(animate, now, time.Duration(clips)*studioClipDuration)
}

func (p *Presenter) playMecanimAnimation(protocol.Command, bool, time.Time) task.Future {
	return task.Resolved()
}

func (p *Presenter) moveCards(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.MoveCardsWithCustomAnimationCommand)
	p.board.upsertCards(c.Cards)
	if c.CardTrail != nil {
		for _, card := range c.Cards {
			p.board.Trails[card.ID] = *c.CardTrail
		}
	}
	d := time.Duration(len(c.Cards))*c.StaggerInterval.Duration() + c.PauseDuration.Duration()
	return hold(animate, now, d)
}

func (p *Presenter) setCardTrail(cmd protocol.Command, _ bool, _ time.Time) task.Future {
	c := cmd.(protocol.SetCardTrailCommand)
	for _, id := range c.CardIDs {
		if _, ok := p.board.Cards[id]; !ok {
			p.logf("present: %s target %s not found, skipping", cmd.Kind(), cardRef(id))
			continue
		}
		p.board.Trails[id] = c.Trail
	}
	return task.Resolved()
}

func (p *Presenter) shuffleVoid(cmd protocol.Command, animate bool, now time.Time) task.Future {
	c := cmd.(protocol.ShuffleVoidIntoDeckCommand)
	if !p.board.Has(protocol.VoidObject(c.Player)) {
		return p.missing(cmd.Kind(), protocol.VoidObject(c.Player))
	}
	return hold(animate, now, shuffleDuration)
}

func (p *Presenter) displayArrows(cmd protocol.Command, _ bool, _ time.Time) task.Future {
	c := cmd.(protocol.DisplayArrowsCommand)
	arrows := make([]protocol.DisplayArrow, 0, len(c.Arrows))
	for _, arrow := range c.Arrows {
		if !p.board.Has(arrow.Source) || !p.board.Has(arrow.Target) {
			p.logf("present: %s arrow %s -> %s not found, skipping", cmd.Kind(), arrow.Source, arrow.Target)
			continue
		}
		arrows = append(arrows, arrow)
	}
	p.board.Arrows = arrows
	return task.Resolved()
}

func (p *Presenter) updateOverlay(cmd protocol.Command, _ bool, _ time.Time) task.Future {
	c := cmd.(protocol.UpdateScreenOverlayCommand)
	p.board.Overlay = append([]byte(nil), c.ScreenOverlay...)
	return task.Resolved()
}

func (p *Presenter) anchorToScreen(cmd protocol.Command, _ bool, now time.Time) task.Future {
	c := cmd.(protocol.AnchorToScreenPositionCommand)
	for site, anchor := range p.board.Anchors {
		if !anchor.Until.IsZero() && !now.Before(anchor.Until) {
			delete(p.board.Anchors, site)
		}
	}
	if c.Anchor.SiteCharacter == nil {
		return p.missing(cmd.Kind(), siteRef{})
	}
	site := *c.Anchor.SiteCharacter
	if len(c.Node) == 0 || string(c.Node) == "null" {
		delete(p.board.Anchors, site)
		return task.Resolved()
	}
	anchor := Anchor{Node: append([]byte(nil), c.Node...)}
	if c.ShowDuration != nil {
		anchor.Until = now.Add(c.ShowDuration.Duration())
	}
	p.board.Anchors[site] = anchor
	return task.Resolved()
}
