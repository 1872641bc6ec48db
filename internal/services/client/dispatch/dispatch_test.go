package dispatch

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/task"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type recorder struct {
	calls []string
}

func (r *recorder) handler(d time.Duration) Handler {
	return HandlerFunc(func(cmd protocol.Command, animate bool, now time.Time) task.Future {
		r.calls = append(r.calls, fmt.Sprintf("%s@%d", cmd.Kind(), now.Sub(epoch).Milliseconds()))
		if !animate {
			return task.Resolved()
		}
		return task.After(now, d)
	})
}

func TestRegisterRejectsDuplicatesAndReserved(t *testing.T) {
	d := New(func(string, ...any) {})
	r := &recorder{}
	if err := d.Register(protocol.KindDisplayEffect, r.handler(0)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := d.Register(protocol.KindDisplayEffect, r.handler(0)); !errors.Is(err, ErrHandlerAlreadyRegistered) {
		t.Fatalf("err = %v, want ErrHandlerAlreadyRegistered", err)
	}
	if err := d.Register(protocol.KindWait, r.handler(0)); !errors.Is(err, ErrReservedKind) {
		t.Fatalf("err = %v, want ErrReservedKind", err)
	}
	if err := d.Register(protocol.KindDissolveCard, nil); !errors.Is(err, ErrHandlerRequired) {
		t.Fatalf("err = %v, want ErrHandlerRequired", err)
	}
	if !d.Registered(protocol.KindWait) || d.Registered(protocol.KindDissolveCard) {
		t.Fatal("unexpected registration state")
	}
}

func TestGroupWaitsForLongestCommand(t *testing.T) {
	d := New(func(string, ...any) {})
	seq := protocol.Parallel(
		protocol.WaitCommand{Duration: protocol.Ms(100)},
		protocol.WaitCommand{Duration: protocol.Ms(300)},
	)
	f := d.Apply(seq, true, epoch)
	for _, ms := range []int{0, 100, 200, 299} {
		if f.Poll(epoch.Add(time.Duration(ms) * time.Millisecond)) {
			t.Fatalf("group finished at %dms, want 300ms", ms)
		}
	}
	if !f.Poll(epoch.Add(300 * time.Millisecond)) {
		t.Fatal("expected group finished at 300ms")
	}
}

func TestStateUpdatesStartBeforeDependents(t *testing.T) {
	d := New(func(string, ...any) {})
	r := &recorder{}
	_ = d.Register(protocol.KindFireProjectile, r.handler(0))
	_ = d.Register(protocol.KindUpdateBattle, r.handler(0))
	_ = d.Register(protocol.KindUpdateQuest, r.handler(0))

	seq := protocol.Parallel(
		protocol.FireProjectileCommand{SourceID: protocol.CardObject("a"), TargetID: protocol.CardObject("b")},
		protocol.UpdateQuestCommand{},
		protocol.UpdateBattleCommand{},
	)
	if !d.Apply(seq, true, epoch).Poll(epoch) {
		t.Fatal("expected zero-duration group to finish in one poll")
	}
	want := []string{"UpdateQuest@0", "UpdateBattle@0", "FireProjectile@0"}
	if fmt.Sprint(r.calls) != fmt.Sprint(want) {
		t.Fatalf("calls = %v, want %v", r.calls, want)
	}
}

func TestGroupsRunInOrder(t *testing.T) {
	d := New(func(string, ...any) {})
	r := &recorder{}
	_ = d.Register(protocol.KindDisplayEffect, r.handler(200*time.Millisecond))
	_ = d.Register(protocol.KindPlayAudioClip, r.handler(0))

	seq := protocol.Sequential(protocol.DisplayEffectCommand{}, protocol.PlayAudioClipCommand{})
	f := d.Apply(seq, true, epoch)
	f.Poll(epoch)
	if len(r.calls) != 1 {
		t.Fatalf("calls = %v, want only the first group started", r.calls)
	}
	f.Poll(epoch.Add(100 * time.Millisecond))
	if len(r.calls) != 1 {
		t.Fatalf("calls = %v, want second group not started", r.calls)
	}
	if !f.Poll(epoch.Add(200 * time.Millisecond)) {
		t.Fatal("expected sequence finished at 200ms")
	}
	want := []string{"DisplayEffect@0", "PlayAudioClip@200"}
	if fmt.Sprint(r.calls) != fmt.Sprint(want) {
		t.Fatalf("calls = %v, want %v", r.calls, want)
	}
}

func TestApplyWithoutAnimationSkipsWaits(t *testing.T) {
	d := New(func(string, ...any) {})
	seq := protocol.Sequential(protocol.WaitCommand{Duration: protocol.Ms(5000)})
	if !d.Apply(seq, false, epoch).Poll(epoch) {
		t.Fatal("expected non animated wait to resolve immediately")
	}
}

func TestUnknownCommandResolvesAndLogs(t *testing.T) {
	var logged []string
	d := New(func(format string, args ...any) {
		logged = append(logged, fmt.Sprintf(format, args...))
	})
	seq := protocol.FromCommand(protocol.ShuffleVoidIntoDeckCommand{Player: protocol.DisplayUser})
	if !d.Apply(seq, true, epoch).Poll(epoch) {
		t.Fatal("expected unknown command to resolve immediately")
	}
	if len(logged) != 1 {
		t.Fatalf("logged = %v, want one line", logged)
	}
}

func TestEmptySequenceResolves(t *testing.T) {
	d := New(nil)
	if !d.Apply(protocol.CommandSequence{}, true, epoch).Poll(epoch) {
		t.Fatal("expected empty sequence resolved")
	}
}
