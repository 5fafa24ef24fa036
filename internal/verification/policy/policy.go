// Package policy decides what happens to a case right after submission.
package policy

import (
	"context"
	"fmt"

	"propverify/internal/verification/models"
)

// Verdict is a policy's answer. Decide is false when the case should wait
// for a human reviewer.
type Verdict struct {
	Decide   bool
	Outcome  models.Outcome
	Reviewer string
	Notes    string
}

// DecisionPolicy is consulted once per submission.
type DecisionPolicy interface {
	Decide(ctx context.Context, c *models.Case) (Verdict, error)
}

const (
	NameAutoApprove  = "auto_approve"
	NameManualReview = "manual_review"
)

// AutoApprove verifies every submission immediately.
type AutoApprove struct{}

func (AutoApprove) Decide(context.Context, *models.Case) (Verdict, error) {
	return Verdict{Decide: true, Outcome: models.OutcomeVerified, Reviewer: models.AutoReviewer}, nil
}

// ManualReview leaves every submission pending.
type ManualReview struct{}

func (ManualReview) Decide(context.Context, *models.Case) (Verdict, error) {
	return Verdict{}, nil
}

// ByName returns the policy for a configuration value.
func ByName(name string) (DecisionPolicy, error) {
	switch name {
	case "", NameAutoApprove:
		return AutoApprove{}, nil
	case NameManualReview:
		return ManualReview{}, nil
	default:
		return nil, fmt.Errorf("unknown decision policy %q", name)
	}
}
