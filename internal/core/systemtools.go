package core

import "spacecore/pkg/domain"

// SystemTool describes one platform-managed tool deployed automatically into
// new spaces of a given type. System placements are locked against user
// removal but their state remains writable.
type SystemTool struct {
	ToolID   string
	Location domain.PlacementLocation
	Order    int
}

// SystemToolRegistry maps a space type to the tools auto-deployed on
// creation. The zero value has no entries.
type SystemToolRegistry struct {
	byType map[string][]SystemTool
}

// NewSystemToolRegistry builds an empty registry.
func NewSystemToolRegistry() *SystemToolRegistry {
	return &SystemToolRegistry{byType: make(map[string][]SystemTool)}
}

// DefaultSystemToolRegistry returns the platform defaults: every space gets
// the events board, course spaces additionally get the syllabus tool.
func DefaultSystemToolRegistry() *SystemToolRegistry {
	r := NewSystemToolRegistry()
	r.Register("", SystemTool{ToolID: "system.events-board", Location: domain.PlacementSidebar, Order: 0})
	r.Register("course", SystemTool{ToolID: "system.syllabus", Location: domain.PlacementSidebar, Order: 1})
	return r
}

// Register appends tools for a space type. The empty type applies to all
// spaces.
func (r *SystemToolRegistry) Register(spaceType string, tools ...SystemTool) {
	r.byType[spaceType] = append(r.byType[spaceType], tools...)
}

// ToolsFor returns the tools to deploy for a space type: the universal set
// followed by the type-specific set.
func (r *SystemToolRegistry) ToolsFor(spaceType string) []SystemTool {
	var out []SystemTool
	out = append(out, r.byType[""]...)
	if spaceType != "" {
		out = append(out, r.byType[spaceType]...)
	}
	return out
}
