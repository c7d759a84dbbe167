package domain

import "sort"

// PlacementInput carries caller-supplied attributes for deploying a tool.
type PlacementInput struct {
	ID         string
	ToolID     string
	Location   PlacementLocation
	TabID      *string
	Visibility Visibility
	Locked     bool
	State      map[string]any
	// Order places the deployment explicitly; negative assigns the next
	// dense position.
	Order int
}

// PlacementUpdate is a partial update; nil fields are left untouched.
type PlacementUpdate struct {
	Location   *PlacementLocation
	TabID      **string
	Visibility *Visibility
}

// PlacedTool returns the placement with the given id.
func (s *Space) PlacedTool(id string) (PlacedTool, bool) {
	for _, pt := range s.doc.PlacedTools {
		if pt.ID == id {
			return clonePlacedTool(pt), true
		}
	}
	return PlacedTool{}, false
}

// PlacedTools returns all placements sorted by order.
func (s *Space) PlacedTools() []PlacedTool {
	out := make([]PlacedTool, len(s.doc.PlacedTools))
	for i, pt := range s.doc.PlacedTools {
		out[i] = clonePlacedTool(pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// PlaceTool deploys a catalog tool into the space. A tool may be deployed at
// most once per space.
func (s *Space) PlaceTool(input PlacementInput) (PlacedTool, error) {
	return s.place(input, false)
}

// PlaceSystemTool deploys a platform-managed tool. System placements are
// locked against user edits.
func (s *Space) PlaceSystemTool(input PlacementInput) (PlacedTool, error) {
	input.Locked = true
	return s.place(input, true)
}

func (s *Space) place(input PlacementInput, system bool) (PlacedTool, error) {
	if input.ID == "" {
		return PlacedTool{}, NewRuleError("place_tool", "placement id is required")
	}
	if input.ToolID == "" {
		return PlacedTool{}, NewRuleError("place_tool", "tool id is required")
	}
	if !validPlacementLocation(input.Location) {
		return PlacedTool{}, NewRuleError("place_tool", "unknown placement location %q", input.Location)
	}
	for _, pt := range s.doc.PlacedTools {
		if pt.ToolID == input.ToolID {
			return PlacedTool{}, NewRuleError("place_tool", "tool %s is already placed in this space", input.ToolID)
		}
	}
	if input.Location == PlacementTab {
		if input.TabID == nil {
			return PlacedTool{}, NewRuleError("place_tool", "tab placements require a tab id")
		}
		if _, ok := s.Tab(*input.TabID); !ok {
			return PlacedTool{}, NewRuleError("place_tool", "tab %s does not exist", *input.TabID)
		}
	}
	if input.Visibility == "" {
		input.Visibility = VisibilityPublic
	}
	order := input.Order
	if order < 0 {
		order = len(s.doc.PlacedTools)
	}
	pt := PlacedTool{
		ID:            input.ID,
		ToolID:        input.ToolID,
		Location:      input.Location,
		TabID:         cloneString(input.TabID),
		Visibility:    input.Visibility,
		Order:         order,
		IsActive:      true,
		Locked:        input.Locked,
		SystemManaged: system,
		State:         cloneAnyMap(input.State),
	}
	s.doc.PlacedTools = append(s.doc.PlacedTools, pt)
	if s.doc.SetupProgress != nil {
		s.doc.SetupProgress.FirstToolDeployed = true
	}
	s.touch()
	s.emit(EventToolPlaced, "placed_tools")
	return clonePlacedTool(pt), nil
}

// UpdatePlacedTool applies a partial update and returns the changed field
// list. Locked placements reject updates.
func (s *Space) UpdatePlacedTool(id string, update PlacementUpdate) ([]string, error) {
	idx, err := s.placementIndex("update_tool", id)
	if err != nil {
		return nil, err
	}
	pt := &s.doc.PlacedTools[idx]
	if pt.Locked {
		return nil, NewRuleError("update_tool", "placement %s is locked", id)
	}
	var changed []string
	if update.Location != nil && *update.Location != pt.Location {
		if !validPlacementLocation(*update.Location) {
			return nil, NewRuleError("update_tool", "unknown placement location %q", *update.Location)
		}
		pt.Location = *update.Location
		changed = append(changed, "location")
	}
	if update.TabID != nil {
		pt.TabID = cloneString(*update.TabID)
		changed = append(changed, "tab_id")
	}
	if update.Visibility != nil && *update.Visibility != pt.Visibility {
		pt.Visibility = *update.Visibility
		changed = append(changed, "visibility")
	}
	if len(changed) == 0 {
		return nil, nil
	}
	s.touch()
	s.emit(EventToolUpdated, changed...)
	return changed, nil
}

// RemovePlacedTool deletes a placement. Locked placements reject removal.
func (s *Space) RemovePlacedTool(id string) error {
	idx, err := s.placementIndex("remove_tool", id)
	if err != nil {
		return err
	}
	if s.doc.PlacedTools[idx].Locked {
		return NewRuleError("remove_tool", "placement %s is locked", id)
	}
	s.doc.PlacedTools = append(s.doc.PlacedTools[:idx], s.doc.PlacedTools[idx+1:]...)
	s.reindexPlacements()
	s.touch()
	s.emit(EventToolRemoved, "placed_tools")
	return nil
}

// ActivatePlacedTool enables a placement. Already-active placements are a
// no-op, not an error.
func (s *Space) ActivatePlacedTool(id string) error {
	return s.setPlacementActive("activate_tool", id, true, EventToolActivated)
}

// DeactivatePlacedTool disables a placement; idempotent like activation.
func (s *Space) DeactivatePlacedTool(id string) error {
	return s.setPlacementActive("deactivate_tool", id, false, EventToolDeactivated)
}

func (s *Space) setPlacementActive(op, id string, active bool, event EventType) error {
	idx, err := s.placementIndex(op, id)
	if err != nil {
		return err
	}
	if s.doc.PlacedTools[idx].IsActive == active {
		return nil
	}
	s.doc.PlacedTools[idx].IsActive = active
	s.touch()
	s.emit(event, "placed_tools")
	return nil
}

// ReorderPlacedTools replaces placement ordering with the supplied id
// sequence; the set must match existing placements exactly.
func (s *Space) ReorderPlacedTools(ids []string) error {
	existing := make([]string, len(s.doc.PlacedTools))
	for i, pt := range s.doc.PlacedTools {
		existing[i] = pt.ID
	}
	if err := validateReorderSet("reorder_tools", ids, existing); err != nil {
		return err
	}
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}
	for i := range s.doc.PlacedTools {
		s.doc.PlacedTools[i].Order = position[s.doc.PlacedTools[i].ID]
	}
	s.touch()
	s.emit(EventToolsReordered, "placed_tools")
	return nil
}

// UpdatePlacedToolState replaces the runtime state blob. State updates are
// allowed on locked placements; tools own their runtime state.
func (s *Space) UpdatePlacedToolState(id string, state map[string]any) error {
	idx, err := s.placementIndex("update_tool_state", id)
	if err != nil {
		return err
	}
	now := s.now()
	s.doc.PlacedTools[idx].State = cloneAnyMap(state)
	s.doc.PlacedTools[idx].StateUpdatedAt = &now
	s.touch()
	s.emit(EventToolStateUpdated, "placed_tools")
	return nil
}

func (s *Space) placementIndex(op, id string) (int, error) {
	for i := range s.doc.PlacedTools {
		if s.doc.PlacedTools[i].ID == id {
			return i, nil
		}
	}
	return -1, NewRuleError(op, "placement %s does not exist", id)
}

func (s *Space) reindexPlacements() {
	sort.Slice(s.doc.PlacedTools, func(i, j int) bool { return s.doc.PlacedTools[i].Order < s.doc.PlacedTools[j].Order })
	for i := range s.doc.PlacedTools {
		s.doc.PlacedTools[i].Order = i
	}
}

func validPlacementLocation(loc PlacementLocation) bool {
	switch loc {
	case PlacementSidebar, PlacementInline, PlacementTab:
		return true
	default:
		return false
	}
}
