// Package lifecycle owns the idea status machine.
//
//	(submit) -> GATED -approve-> APPROVED -produce-> PRODUCTION -schedule-> SCHEDULED
//	            GATED -archive-> ARCHIVED
//
// DRAFT, PUBLISHED and ANALYZED are reserved and never reached.
package lifecycle

import (
	"errors"
	"fmt"

	"architect/internal/domain"
)

var (
	ErrInvalidTransition = errors.New("invalid idea status transition")
	ErrGateClosed        = errors.New("decision gate returned STOP")
	ErrAlreadyGenerated  = errors.New("content already generated")
	ErrUnknownAction     = errors.New("unknown action")
)

// Action is a user-triggered lifecycle trigger.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionArchive  Action = "archive"
	ActionProduce  Action = "produce"
	ActionSchedule Action = "schedule"
)

// UserActions are the actions a caller may request directly. Produce only
// happens as a side effect of brief generation.
var UserActions = []Action{ActionApprove, ActionArchive, ActionSchedule}

func ParseAction(s string) (Action, error) {
	for _, a := range []Action{ActionApprove, ActionArchive, ActionProduce, ActionSchedule} {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

var transitions = map[domain.IdeaStatus]map[Action]domain.IdeaStatus{
	domain.StatusGated: {
		ActionApprove: domain.StatusApproved,
		ActionArchive: domain.StatusArchived,
	},
	domain.StatusApproved: {
		ActionProduce: domain.StatusProduction,
	},
	domain.StatusProduction: {
		ActionSchedule: domain.StatusScheduled,
	},
}

// Next returns the status reached from current via action.
func Next(current domain.IdeaStatus, action Action) (domain.IdeaStatus, error) {
	if to, ok := transitions[current][action]; ok {
		return to, nil
	}
	return current, fmt.Errorf("%w: cannot %s an idea in %s", ErrInvalidTransition, action, current)
}

// EnsureTransition checks a raw status change against the table.
func EnsureTransition(from, to domain.IdeaStatus) error {
	for _, target := range transitions[from] {
		if target == to {
			return nil
		}
	}
	return fmt.Errorf("%w %s -> %s", ErrInvalidTransition, from, to)
}

// Terminal reports whether no transition leaves s.
func Terminal(s domain.IdeaStatus) bool {
	return len(transitions[s]) == 0
}

// EnsureApprovable enforces the gate: only START-scored ideas are approved.
func EnsureApprovable(idea domain.Idea) error {
	if idea.CDFScore == nil {
		return fmt.Errorf("%w: idea %s has no score", ErrGateClosed, idea.ID)
	}
	if idea.CDFScore.Decision != domain.DecisionStart {
		return fmt.Errorf("%w: idea %s scored %.2f", ErrGateClosed, idea.ID, idea.CDFScore.TotalScore)
	}
	return nil
}

// Plan validates action against idea and returns the update to apply.
func Plan(idea domain.Idea, action Action) (domain.IdeaUpdate, error) {
	to, err := Next(idea.Status, action)
	if err != nil {
		return domain.IdeaUpdate{}, err
	}
	switch action {
	case ActionApprove:
		if err := EnsureApprovable(idea); err != nil {
			return domain.IdeaUpdate{}, err
		}
	case ActionProduce:
		if idea.Brief != nil {
			return domain.IdeaUpdate{}, fmt.Errorf("%w: idea %s already has a brief", ErrAlreadyGenerated, idea.ID)
		}
	}
	return domain.IdeaUpdate{Status: &to}, nil
}

// EnsureCanGenerateVariants gates the ideation step: approved ideas only,
// once.
func EnsureCanGenerateVariants(idea domain.Idea) error {
	if idea.Status != domain.StatusApproved {
		return fmt.Errorf("%w: variants need an APPROVED idea, %s is %s", ErrInvalidTransition, idea.ID, idea.Status)
	}
	if idea.HasVariants() {
		return fmt.Errorf("%w: idea %s already has variants", ErrAlreadyGenerated, idea.ID)
	}
	return nil
}

// Merge applies a partial update. Fields absent from u are kept.
func Merge(idea domain.Idea, u domain.IdeaUpdate) domain.Idea {
	if u.Status != nil {
		idea.Status = *u.Status
	}
	if u.CDFScore != nil {
		score := *u.CDFScore
		idea.CDFScore = &score
	}
	if u.Variants != nil {
		idea.Variants = append([]domain.Variant(nil), u.Variants...)
		if idea.Variants == nil {
			idea.Variants = []domain.Variant{}
		}
	}
	if u.Brief != nil {
		brief := *u.Brief
		idea.Brief = &brief
	}
	return idea
}
