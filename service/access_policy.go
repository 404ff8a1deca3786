package service

import (
	"fmt"

	"parlayz/models"
)

// Action is a privileged operation guarded by the access policy
type Action string

const (
	ActionCreateEvent Action = "create_event"
	ActionLockEvent   Action = "lock_event"
	ActionSettleEvent Action = "settle_event"
)

// AccessPolicy decides whether an actor may perform a privileged action
type AccessPolicy interface {
	Allow(actor models.Actor, action Action) bool
}

// AdminAccessPolicy grants every privileged action to administrators only.
// Creating an event gives its creator no extra rights.
type AdminAccessPolicy struct{}

// NewAdminAccessPolicy creates the default access policy
func NewAdminAccessPolicy() AccessPolicy {
	return AdminAccessPolicy{}
}

func (AdminAccessPolicy) Allow(actor models.Actor, action Action) bool {
	switch action {
	case ActionCreateEvent, ActionLockEvent, ActionSettleEvent:
		return actor.IsAdmin
	default:
		return false
	}
}

// authorize returns ErrNotAuthorized when policy denies the action
func authorize(policy AccessPolicy, actor models.Actor, action Action) error {
	if !policy.Allow(actor, action) {
		return fmt.Errorf("%w: %s requires administrator", ErrNotAuthorized, action)
	}
	return nil
}
