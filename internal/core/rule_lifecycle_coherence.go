package core

import (
	"context"
	"fmt"

	"spacecore/pkg/domain"
)

// LifecycleCoherenceRule blocks commits that write an unknown lifecycle
// state or that record an invalid transition relative to the prior document.
// Legacy documents with an empty stored state pass through untouched.
type LifecycleCoherenceRule struct{}

func (LifecycleCoherenceRule) Name() string { return "lifecycle-coherence" }

func (LifecycleCoherenceRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Entity != domain.EntitySpace || change.After == nil {
			continue
		}
		after := change.After
		if after.LifecycleState == "" {
			continue
		}
		if !domain.ValidLifecycleState(after.LifecycleState) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle-coherence",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("unknown lifecycle state %q", after.LifecycleState),
				Entity:   domain.EntitySpace,
				EntityID: after.SpaceID,
			})
			continue
		}
		if change.Before == nil || change.Before.LifecycleState == "" {
			continue
		}
		from, to := change.Before.LifecycleState, after.LifecycleState
		if from != to && !domain.CanTransition(from, to) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle-coherence",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("lifecycle transition %s -> %s is not allowed", from, to),
				Entity:   domain.EntitySpace,
				EntityID: after.SpaceID,
			})
		}
	}
	return res, nil
}
