package domain

import "sort"

// WidgetInput carries caller-supplied attributes for creating a widget.
type WidgetInput struct {
	ID     string
	Type   string
	Title  string
	Config map[string]any
	// Order places the widget explicitly; negative assigns the next dense
	// position.
	Order int
}

// WidgetUpdate is a partial update; nil fields are left untouched.
type WidgetUpdate struct {
	Title    *string
	IsActive *bool
	Config   *map[string]any
}

// Widget returns the widget with the given id.
func (s *Space) Widget(id string) (Widget, bool) {
	for _, w := range s.doc.Widgets {
		if w.ID == id {
			cp := w
			cp.Config = cloneAnyMap(w.Config)
			return cp, true
		}
	}
	return Widget{}, false
}

// Widgets returns all widgets sorted by order.
func (s *Space) Widgets() []Widget {
	out := make([]Widget, len(s.doc.Widgets))
	for i, w := range s.doc.Widgets {
		out[i] = w
		out[i].Config = cloneAnyMap(w.Config)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// CreateWidget appends a widget at the next order position.
func (s *Space) CreateWidget(input WidgetInput) (Widget, error) {
	if input.ID == "" {
		return Widget{}, NewRuleError("create_widget", "widget id is required")
	}
	if input.Type == "" {
		return Widget{}, NewRuleError("create_widget", "widget type is required")
	}
	if _, ok := s.Widget(input.ID); ok {
		return Widget{}, NewRuleError("create_widget", "widget %s already exists", input.ID)
	}
	order := input.Order
	if order < 0 {
		order = len(s.doc.Widgets)
	}
	widget := Widget{
		ID:       input.ID,
		Type:     input.Type,
		Title:    input.Title,
		Order:    order,
		IsActive: true,
		Config:   cloneAnyMap(input.Config),
	}
	s.doc.Widgets = append(s.doc.Widgets, widget)
	s.touch()
	s.emit(EventWidgetCreated, "widgets")
	return widget, nil
}

// UpdateWidget applies a partial update and returns the changed field list.
func (s *Space) UpdateWidget(id string, update WidgetUpdate) ([]string, error) {
	idx := -1
	for i := range s.doc.Widgets {
		if s.doc.Widgets[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, NewRuleError("update_widget", "widget %s does not exist", id)
	}
	var changed []string
	w := &s.doc.Widgets[idx]
	if update.Title != nil && *update.Title != w.Title {
		w.Title = *update.Title
		changed = append(changed, "title")
	}
	if update.IsActive != nil && *update.IsActive != w.IsActive {
		w.IsActive = *update.IsActive
		changed = append(changed, "is_active")
	}
	if update.Config != nil {
		w.Config = cloneAnyMap(*update.Config)
		changed = append(changed, "config")
	}
	if len(changed) == 0 {
		return nil, nil
	}
	s.touch()
	s.emit(EventWidgetUpdated, changed...)
	return changed, nil
}

// RemoveWidget detaches the widget from every tab referencing it, then
// removes it from the space.
func (s *Space) RemoveWidget(id string) error {
	idx := -1
	for i := range s.doc.Widgets {
		if s.doc.Widgets[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return NewRuleError("remove_widget", "widget %s does not exist", id)
	}
	for i := range s.doc.Tabs {
		tab := &s.doc.Tabs[i]
		for j, wid := range tab.WidgetIDs {
			if wid == id {
				tab.WidgetIDs = append(tab.WidgetIDs[:j], tab.WidgetIDs[j+1:]...)
				s.emit(EventWidgetDetached, "tabs", id)
				break
			}
		}
	}
	s.doc.Widgets = append(s.doc.Widgets[:idx], s.doc.Widgets[idx+1:]...)
	s.reindexWidgets()
	s.touch()
	s.emit(EventWidgetRemoved, "widgets")
	return nil
}

func (s *Space) reindexWidgets() {
	sort.Slice(s.doc.Widgets, func(i, j int) bool { return s.doc.Widgets[i].Order < s.doc.Widgets[j].Order })
	for i := range s.doc.Widgets {
		s.doc.Widgets[i].Order = i
	}
}
