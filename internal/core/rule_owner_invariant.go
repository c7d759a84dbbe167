package core

import (
	"context"
	"fmt"

	"spacecore/pkg/domain"
)

// OwnerInvariantRule blocks commits that would leave a claimed space with a
// missing or duplicated owner, or an unclaimed space with one.
type OwnerInvariantRule struct{}

func (OwnerInvariantRule) Name() string { return "owner-invariant" }

func (OwnerInvariantRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Entity != domain.EntitySpace || change.After == nil {
			continue
		}
		doc := change.After
		owners := 0
		for _, m := range doc.Members {
			if m.Role == domain.RoleOwner {
				owners++
			}
		}
		claimed := doc.ClaimStatus == domain.ClaimClaimed
		switch {
		case claimed && owners != 1:
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "owner-invariant",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("claimed space has %d owners, want exactly 1", owners),
				Entity:   domain.EntitySpace,
				EntityID: doc.SpaceID,
			})
		case !claimed && owners != 0:
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "owner-invariant",
				Severity: domain.SeverityBlock,
				Message:  "unclaimed space must not have an owner",
				Entity:   domain.EntitySpace,
				EntityID: doc.SpaceID,
			})
		}
	}
	return res, nil
}
