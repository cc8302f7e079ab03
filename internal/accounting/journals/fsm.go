package journals

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/shared"
)

const (
	eventPost = "post"
	eventVoid = "void"
)

var entryEvents = fsm.Events{
	{Name: eventPost, Src: []string{string(StateDraft)}, Dst: string(StatePosted)},
	{Name: eventVoid, Src: []string{string(StatePosted)}, Dst: string(StateVoided)},
}

func newEntryFSM(current State) *fsm.FSM {
	return fsm.NewFSM(string(current), entryEvents, fsm.Callbacks{})
}

// transition applies event to an entry in state current and returns the new state.
func transition(ctx context.Context, current State, event string) (State, error) {
	machine := newEntryFSM(current)
	if err := machine.Event(ctx, event); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return current, fmt.Errorf("%w: cannot %s a %s entry", shared.ErrInvalidStatus, event, current)
		}
		return current, err
	}
	return State(machine.Current()), nil
}

// Can reports whether event is allowed from state.
func Can(state State, event string) bool {
	return newEntryFSM(state).Can(event)
}
