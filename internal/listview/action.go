package listview

import (
	"fmt"
	"strings"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

// ActionKind is the bulk action picked in the action selector.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionStatus
	ActionDelete
)

// String returns the selector label of k.
func (k ActionKind) String() string {
	switch k {
	case ActionStatus:
		return "Status"
	case ActionDelete:
		return "Delete"
	default:
		return "All"
	}
}

// ParseActionKind converts a selector label into an ActionKind.
// "All" and the empty string select no action.
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "none":
		return ActionNone, nil
	case "status":
		return ActionStatus, nil
	case "delete":
		return ActionDelete, nil
	default:
		return ActionNone, domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("invalid action %q: must be one of All, Status, Delete", s), nil)
	}
}

// Action is the state of the bulk action selector: NoAction, DeleteAction, or
// StatusAction carrying the target sub-status. The zero value is NoAction.
//
// Switching kinds always resets the sub-status to StatusAll, so a stale
// sub-status can never leak into a newly chosen action.
type Action struct {
	kind   ActionKind
	status StatusFilter
}

// NoAction returns the idle action state.
func NoAction() Action {
	return Action{kind: ActionNone, status: StatusAll}
}

// DeleteAction returns the delete action state.
func DeleteAction() Action {
	return Action{kind: ActionDelete, status: StatusAll}
}

// StatusAction returns the status action state with the given sub-status.
func StatusAction(sub StatusFilter) Action {
	if sub == "" {
		sub = StatusAll
	}
	return Action{kind: ActionStatus, status: sub}
}

// Kind returns the action kind.
func (a Action) Kind() ActionKind {
	return a.kind
}

// SubStatus returns the status sub-filter. It is StatusAll outside StatusAction.
func (a Action) SubStatus() StatusFilter {
	if a.status == "" {
		return StatusAll
	}
	return a.status
}

// WithKind transitions to kind. Choosing the current kind is a no-op; any
// other kind starts with the sub-status reset.
func (a Action) WithKind(kind ActionKind) Action {
	if kind == a.kind {
		return a
	}
	switch kind {
	case ActionStatus:
		return StatusAction(StatusAll)
	case ActionDelete:
		return DeleteAction()
	default:
		return NoAction()
	}
}

// WithStatus sets the sub-status. Only StatusAction accepts one.
func (a Action) WithStatus(sub StatusFilter) (Action, error) {
	if a.kind != ActionStatus {
		return a, domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("status can only be chosen for the Status action, not %s", a.kind), nil)
	}
	return StatusAction(sub), nil
}

// Ready reports whether the action can be applied: Delete always, Status only
// with a concrete sub-status.
func (a Action) Ready() bool {
	switch a.kind {
	case ActionDelete:
		return true
	case ActionStatus:
		_, ok := a.SubStatus().Target()
		return ok
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (a Action) String() string {
	if a.kind == ActionStatus {
		return fmt.Sprintf("Status(%s)", a.SubStatus())
	}
	return a.kind.String()
}

// ActionFromFilters builds an Action from the two selector values of a list
// screen: the action filter (All, Status, Delete) and the status sub-filter.
func ActionFromFilters(actionFilter, statusFilter string) (Action, error) {
	kind, err := ParseActionKind(actionFilter)
	if err != nil {
		return NoAction(), err
	}
	a := NoAction().WithKind(kind)
	if kind != ActionStatus {
		return a, nil
	}
	sub, err := ParseStatusFilter(statusFilter)
	if err != nil {
		return a, err
	}
	return a.WithStatus(sub)
}
