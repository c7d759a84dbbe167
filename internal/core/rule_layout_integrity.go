package core

import (
	"context"
	"fmt"
	"sort"

	"spacecore/pkg/domain"
)

// LayoutIntegrityRule warns when tab or placed-tool orders are not a dense
// 0..n-1 sequence and blocks duplicate tool placements or dangling widget
// references. Ordering drift is recoverable by a reorder, so it only warns.
type LayoutIntegrityRule struct{}

func (LayoutIntegrityRule) Name() string { return "layout-integrity" }

func (LayoutIntegrityRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Entity != domain.EntitySpace || change.After == nil {
			continue
		}
		doc := change.After
		if msg := denseOrderProblem("tab", tabOrders(doc.Tabs)); msg != "" {
			res.Violations = append(res.Violations, violation("layout-integrity", domain.SeverityWarn, msg, doc.SpaceID))
		}
		if msg := denseOrderProblem("placed tool", toolOrders(doc.PlacedTools)); msg != "" {
			res.Violations = append(res.Violations, violation("layout-integrity", domain.SeverityWarn, msg, doc.SpaceID))
		}

		seen := make(map[string]struct{}, len(doc.PlacedTools))
		for _, pt := range doc.PlacedTools {
			if _, dup := seen[pt.ToolID]; dup {
				res.Violations = append(res.Violations, violation("layout-integrity", domain.SeverityBlock,
					fmt.Sprintf("tool %s is placed more than once", pt.ToolID), doc.SpaceID))
			}
			seen[pt.ToolID] = struct{}{}
		}

		widgets := make(map[string]struct{}, len(doc.Widgets))
		for _, w := range doc.Widgets {
			widgets[w.ID] = struct{}{}
		}
		for _, tab := range doc.Tabs {
			for _, wid := range tab.WidgetIDs {
				if _, ok := widgets[wid]; !ok {
					res.Violations = append(res.Violations, violation("layout-integrity", domain.SeverityBlock,
						fmt.Sprintf("tab %s references missing widget %s", tab.ID, wid), doc.SpaceID))
				}
			}
		}
	}
	return res, nil
}

func violation(rule string, sev domain.Severity, msg, spaceID string) domain.Violation {
	return domain.Violation{Rule: rule, Severity: sev, Message: msg, Entity: domain.EntitySpace, EntityID: spaceID}
}

func tabOrders(tabs []domain.Tab) []int {
	orders := make([]int, len(tabs))
	for i, t := range tabs {
		orders[i] = t.Order
	}
	return orders
}

func toolOrders(tools []domain.PlacedTool) []int {
	orders := make([]int, len(tools))
	for i, t := range tools {
		orders[i] = t.Order
	}
	return orders
}

func denseOrderProblem(kind string, orders []int) string {
	if len(orders) == 0 {
		return ""
	}
	sorted := append([]int(nil), orders...)
	sort.Ints(sorted)
	for i, v := range sorted {
		if v != i {
			return fmt.Sprintf("%s orders are not dense: want 0..%d", kind, len(orders)-1)
		}
	}
	return ""
}
