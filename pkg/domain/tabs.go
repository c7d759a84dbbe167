package domain

import "sort"

// TabInput carries caller-supplied attributes for creating a tab.
type TabInput struct {
	ID        string
	Name      string
	IsDefault bool
	WidgetIDs []string
	// Order places the tab explicitly; when negative the next dense
	// position is assigned.
	Order int
}

// TabUpdate is a partial update; nil fields are left untouched.
type TabUpdate struct {
	Name      *string
	IsVisible *bool
	WidgetIDs *[]string
}

// Tab returns the tab with the given id.
func (s *Space) Tab(id string) (Tab, bool) {
	for _, t := range s.doc.Tabs {
		if t.ID == id {
			cp := t
			cp.WidgetIDs = append([]string(nil), t.WidgetIDs...)
			return cp, true
		}
	}
	return Tab{}, false
}

// Tabs returns all tabs sorted by order.
func (s *Space) Tabs() []Tab {
	out := make([]Tab, len(s.doc.Tabs))
	for i, t := range s.doc.Tabs {
		out[i] = t
		out[i].WidgetIDs = append([]string(nil), t.WidgetIDs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// CreateTab appends a tab at the next order position. Referenced widgets
// must already exist on the space.
func (s *Space) CreateTab(input TabInput) (Tab, error) {
	if input.ID == "" {
		return Tab{}, NewRuleError("create_tab", "tab id is required")
	}
	if input.Name == "" {
		return Tab{}, NewRuleError("create_tab", "tab name is required")
	}
	if _, ok := s.Tab(input.ID); ok {
		return Tab{}, NewRuleError("create_tab", "tab %s already exists", input.ID)
	}
	for _, wid := range input.WidgetIDs {
		if _, ok := s.Widget(wid); !ok {
			return Tab{}, NewRuleError("create_tab", "widget %s does not exist", wid)
		}
	}
	order := input.Order
	if order < 0 {
		order = len(s.doc.Tabs)
	}
	tab := Tab{
		ID:        input.ID,
		Name:      input.Name,
		Order:     order,
		IsDefault: input.IsDefault,
		IsVisible: true,
		WidgetIDs: append([]string(nil), input.WidgetIDs...),
	}
	s.doc.Tabs = append(s.doc.Tabs, tab)
	s.touch()
	s.emit(EventTabCreated, "tabs")
	return tab, nil
}

// UpdateTab applies a partial update and returns the list of changed fields,
// used for event emission.
func (s *Space) UpdateTab(id string, update TabUpdate) ([]string, error) {
	idx := -1
	for i := range s.doc.Tabs {
		if s.doc.Tabs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, NewRuleError("update_tab", "tab %s does not exist", id)
	}
	var changed []string
	tab := &s.doc.Tabs[idx]
	if update.Name != nil && *update.Name != tab.Name {
		tab.Name = *update.Name
		changed = append(changed, "name")
	}
	if update.IsVisible != nil && *update.IsVisible != tab.IsVisible {
		tab.IsVisible = *update.IsVisible
		changed = append(changed, "is_visible")
	}
	if update.WidgetIDs != nil {
		for _, wid := range *update.WidgetIDs {
			if _, ok := s.Widget(wid); !ok {
				return nil, NewRuleError("update_tab", "widget %s does not exist", wid)
			}
		}
		tab.WidgetIDs = append([]string(nil), *update.WidgetIDs...)
		changed = append(changed, "widget_ids")
	}
	if len(changed) == 0 {
		return nil, nil
	}
	s.touch()
	s.emit(EventTabUpdated, changed...)
	return changed, nil
}

// RemoveTab deletes a non-default tab, emitting a detachment event for every
// widget it referenced. Widgets themselves survive.
func (s *Space) RemoveTab(id string) error {
	idx := -1
	for i := range s.doc.Tabs {
		if s.doc.Tabs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return NewRuleError("remove_tab", "tab %s does not exist", id)
	}
	if s.doc.Tabs[idx].IsDefault {
		return NewRuleError("remove_tab", "the default tab cannot be removed")
	}
	detached := s.doc.Tabs[idx].WidgetIDs
	s.doc.Tabs = append(s.doc.Tabs[:idx], s.doc.Tabs[idx+1:]...)
	s.reindexTabs()
	s.touch()
	for _, wid := range detached {
		s.emit(EventWidgetDetached, "tabs", wid)
	}
	s.emit(EventTabRemoved, "tabs")
	return nil
}

// ReorderTabs replaces tab ordering with the supplied id sequence. The set
// must match the existing tabs exactly; partial reorders are rejected.
func (s *Space) ReorderTabs(ids []string) error {
	if err := validateReorderSet("reorder_tabs", ids, s.tabIDs()); err != nil {
		return err
	}
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}
	for i := range s.doc.Tabs {
		s.doc.Tabs[i].Order = position[s.doc.Tabs[i].ID]
	}
	s.touch()
	s.emit(EventTabsReordered, "tabs")
	return nil
}

// AttachWidgetToTab adds a widget reference to a tab.
func (s *Space) AttachWidgetToTab(widgetID, tabID string) error {
	if _, ok := s.Widget(widgetID); !ok {
		return NewRuleError("attach_widget", "widget %s does not exist", widgetID)
	}
	for i := range s.doc.Tabs {
		if s.doc.Tabs[i].ID != tabID {
			continue
		}
		for _, wid := range s.doc.Tabs[i].WidgetIDs {
			if wid == widgetID {
				return NewRuleError("attach_widget", "widget %s is already attached to tab %s", widgetID, tabID)
			}
		}
		s.doc.Tabs[i].WidgetIDs = append(s.doc.Tabs[i].WidgetIDs, widgetID)
		s.touch()
		s.emit(EventWidgetAttached, "tabs", widgetID)
		return nil
	}
	return NewRuleError("attach_widget", "tab %s does not exist", tabID)
}

// DetachWidgetFromTab removes a widget reference from a tab.
func (s *Space) DetachWidgetFromTab(widgetID, tabID string) error {
	for i := range s.doc.Tabs {
		if s.doc.Tabs[i].ID != tabID {
			continue
		}
		for j, wid := range s.doc.Tabs[i].WidgetIDs {
			if wid == widgetID {
				s.doc.Tabs[i].WidgetIDs = append(s.doc.Tabs[i].WidgetIDs[:j], s.doc.Tabs[i].WidgetIDs[j+1:]...)
				s.touch()
				s.emit(EventWidgetDetached, "tabs", widgetID)
				return nil
			}
		}
		return NewRuleError("detach_widget", "widget %s is not attached to tab %s", widgetID, tabID)
	}
	return NewRuleError("detach_widget", "tab %s does not exist", tabID)
}

func (s *Space) tabIDs() []string {
	ids := make([]string, len(s.doc.Tabs))
	for i, t := range s.doc.Tabs {
		ids[i] = t.ID
	}
	return ids
}

// reindexTabs restores dense zero-based ordering after a removal.
func (s *Space) reindexTabs() {
	sort.Slice(s.doc.Tabs, func(i, j int) bool { return s.doc.Tabs[i].Order < s.doc.Tabs[j].Order })
	for i := range s.doc.Tabs {
		s.doc.Tabs[i].Order = i
	}
}

// validateReorderSet rejects id lists that omit, duplicate, or invent ids.
func validateReorderSet(op string, supplied, existing []string) error {
	if len(supplied) != len(existing) {
		return NewRuleError(op, "reorder list must contain exactly %d ids, got %d", len(existing), len(supplied))
	}
	seen := make(map[string]struct{}, len(supplied))
	for _, id := range supplied {
		if _, dup := seen[id]; dup {
			return NewRuleError(op, "duplicate id %s in reorder list", id)
		}
		seen[id] = struct{}{}
	}
	for _, id := range existing {
		if _, ok := seen[id]; !ok {
			return NewRuleError(op, "reorder list is missing id %s", id)
		}
	}
	return nil
}
