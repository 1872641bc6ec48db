// Package dispatch applies command sequences by routing each command to the
// handler registered for its kind and joining the resulting futures group
// by group.
package dispatch

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/dreamtides/internal/services/client/protocol"
	"github.com/louisbranch/dreamtides/internal/services/client/task"
)

var (
	// ErrHandlerAlreadyRegistered indicates a second handler for one kind.
	ErrHandlerAlreadyRegistered = errors.New("handler already registered")
	// ErrHandlerRequired indicates a nil handler.
	ErrHandlerRequired = errors.New("handler is required")
	// ErrReservedKind indicates a kind the dispatcher handles itself.
	ErrReservedKind = errors.New("command kind is handled by the dispatcher")
)

// Handler starts the presentation of one command and returns a future that
// finishes when its effect is done. When animate is false the handler
// should apply the end state without playing timed effects.
type Handler interface {
	Handle(cmd protocol.Command, animate bool, now time.Time) task.Future
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(cmd protocol.Command, animate bool, now time.Time) task.Future

// Handle implements Handler.
func (f HandlerFunc) Handle(cmd protocol.Command, animate bool, now time.Time) task.Future {
	return f(cmd, animate, now)
}

// Dispatcher routes commands to handlers.
type Dispatcher struct {
	handlers map[protocol.CommandKind]Handler
	logf     func(string, ...any)
}

// New creates an empty dispatcher. A nil logf logs through the standard
// logger.
func New(logf func(string, ...any)) *Dispatcher {
	if logf == nil {
		logf = log.Printf
	}
	return &Dispatcher{
		handlers: make(map[protocol.CommandKind]Handler),
		logf:     logf,
	}
}

// Register binds handler to kind.
func (d *Dispatcher) Register(kind protocol.CommandKind, handler Handler) error {
	if d == nil {
		return errors.New("dispatcher is nil")
	}
	if handler == nil {
		return fmt.Errorf("register %s: %w", kind, ErrHandlerRequired)
	}
	if kind == protocol.KindWait {
		return fmt.Errorf("register %s: %w", kind, ErrReservedKind)
	}
	if _, exists := d.handlers[kind]; exists {
		return fmt.Errorf("register %s: %w", kind, ErrHandlerAlreadyRegistered)
	}
	d.handlers[kind] = handler
	return nil
}

// Registered reports whether kind has a handler.
func (d *Dispatcher) Registered(kind protocol.CommandKind) bool {
	if d == nil {
		return false
	}
	if kind == protocol.KindWait {
		return true
	}
	_, ok := d.handlers[kind]
	return ok
}

// Apply returns a future that presents seq. Groups run strictly in order,
// each starting on the tick its predecessor finishes. Within a group state
// updates are started first, in order, then every other command in order;
// the group finishes when all of them have.
func (d *Dispatcher) Apply(seq protocol.CommandSequence, animate bool, now time.Time) task.Future {
	groups := seq.Groups
	var chain task.Future = task.Resolved()
	for _, group := range groups {
		chain = task.Then(chain, func(start time.Time) task.Future {
			return d.startGroup(group, animate, start)
		})
	}
	return task.Memo(chain)
}

func (d *Dispatcher) startGroup(group protocol.CommandGroup, animate bool, now time.Time) task.Future {
	handles := make([]task.Future, 0, len(group.Commands))
	for _, cmd := range group.Commands {
		if protocol.IsStateUpdate(cmd) {
			handles = append(handles, d.start(cmd, animate, now))
		}
	}
	for _, cmd := range group.Commands {
		if cmd != nil && !protocol.IsStateUpdate(cmd) {
			handles = append(handles, d.start(cmd, animate, now))
		}
	}
	return task.All(handles...)
}

func (d *Dispatcher) start(cmd protocol.Command, animate bool, now time.Time) task.Future {
	if wait, ok := cmd.(protocol.WaitCommand); ok {
		if !animate {
			return task.Resolved()
		}
		return task.After(now, wait.Duration.Duration())
	}
	handler, ok := d.handlers[cmd.Kind()]
	if !ok {
		d.logf("dispatch: no handler for command %s", cmd.Kind())
		return task.Resolved()
	}
	future := handler.Handle(cmd, animate, now)
	if future == nil {
		return task.Resolved()
	}
	return future
}
