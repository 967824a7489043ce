package room

import (
	"fmt"
	"sort"
)

type State string

const (
	StateClean        State = "clean"
	StateCheckIn      State = "check_in"
	StateCheckOut     State = "check_out"
	StateDirty        State = "dirty"
	StateMakeUpRoom   State = "make_up_room"
	StateInspected    State = "inspected"
	StateOutOfService State = "out_of_service"
	StateOutOfOrder   State = "out_of_order"
	StateHouseUse     State = "house_use"
)

type Action string

const (
	ActionCheckIn             Action = "check_in"
	ActionCheckOut            Action = "check_out"
	ActionReadyForCleaning    Action = "ready_for_cleaning"
	ActionStartCleaning       Action = "start_cleaning"
	ActionFinishCleaning      Action = "finish_cleaning"
	ActionFinalInspection     Action = "final_inspection"
	ActionAssignHouseUse      Action = "assign_house_use"
	ActionStaffCheckout       Action = "staff_checkout"
	ActionMaintenanceLight    Action = "maintenance_light"
	ActionMaintenanceHeavy    Action = "maintenance_heavy"
	ActionCompleteMaintenance Action = "complete_maintenance"
)

// transitions maps an action to its admissible source states and target.
var transitions = map[Action]struct {
	from map[State]struct{}
	to   State
}{
	ActionCheckIn:             {from: states(StateClean, StateInspected), to: StateCheckIn},
	ActionCheckOut:            {from: states(StateCheckIn), to: StateCheckOut},
	ActionReadyForCleaning:    {from: states(StateCheckOut), to: StateDirty},
	ActionStartCleaning:       {from: states(StateDirty), to: StateMakeUpRoom},
	ActionFinishCleaning:      {from: states(StateMakeUpRoom), to: StateInspected},
	ActionFinalInspection:     {from: states(StateInspected), to: StateClean},
	ActionAssignHouseUse:      {from: states(StateClean, StateInspected), to: StateHouseUse},
	ActionStaffCheckout:       {from: states(StateHouseUse), to: StateDirty},
	ActionMaintenanceLight:    {from: states(StateClean), to: StateOutOfService},
	ActionMaintenanceHeavy:    {from: states(StateClean), to: StateOutOfOrder},
	ActionCompleteMaintenance: {from: states(StateOutOfService, StateOutOfOrder), to: StateClean},
}

func states(list ...State) map[State]struct{} {
	m := make(map[State]struct{}, len(list))
	for _, s := range list {
		m[s] = struct{}{}
	}
	return m
}

func ValidState(s State) bool {
	switch s {
	case StateClean, StateCheckIn, StateCheckOut, StateDirty, StateMakeUpRoom,
		StateInspected, StateOutOfService, StateOutOfOrder, StateHouseUse:
		return true
	}
	return false
}

func ValidAction(a Action) bool {
	_, ok := transitions[a]
	return ok
}

// AllowedActions returns the actions admissible from a state, sorted for
// stable error messages.
func AllowedActions(s State) []Action {
	var out []Action
	for action, t := range transitions {
		if _, ok := t.from[s]; ok {
			out = append(out, action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func nextState(current State, action Action) (State, error) {
	t, ok := transitions[action]
	if !ok {
		return "", &InvalidTransitionError{Current: current, Action: action, Allowed: AllowedActions(current)}
	}
	if _, ok := t.from[current]; !ok {
		return "", &InvalidTransitionError{Current: current, Action: action, Allowed: AllowedActions(current)}
	}
	return t.to, nil
}

func maintenanceAfter(action Action, current bool) bool {
	switch action {
	case ActionMaintenanceLight, ActionMaintenanceHeavy:
		return true
	case ActionCompleteMaintenance:
		return false
	}
	return current
}

// InvalidTransitionError rejects an action that is not admissible from the
// room's current state. The room is left untouched.
type InvalidTransitionError struct {
	Current State
	Action  Action
	Allowed []Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("room: action %q not allowed from state %q (allowed: %v)", e.Action, e.Current, e.Allowed)
}
