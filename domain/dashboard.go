package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

var DashboardKind = Kind{
	Name:     "dashboard",
	Domain:   "dashboards",
	Label:    "Dashboard",
	Workflow: true,
	Manage:   PermDashboardsManage,
	Publish:  PermStudioPublish,
}

const (
	LayoutGrid = "grid"
	LayoutTree = "tree"
)

// Dashboard is a routed widget board with per-role visibility rules.
type Dashboard struct {
	Meta
	DashboardID        string `json:"dashboard_id"`
	Title              string `json:"title"`
	Route              string `json:"route"`
	LayoutType         string `json:"layout_type"`
	LayoutConfigJSON   string `json:"layout_config_json"`
	WidgetsJSON        string `json:"widgets_json"`
	GlobalFiltersJSON  string `json:"global_filters_json"`
	RoleVisibilityJSON string `json:"role_visibility_json"`
}

func NewDashboard() *Dashboard {
	return &Dashboard{Meta: Meta{Status: StatusDraft}, LayoutType: LayoutGrid}
}

func (d *Dashboard) Kind() Kind          { return DashboardKind }
func (d *Dashboard) DisplayName() string { return d.Title }

func (d *Dashboard) Keys() []NaturalKey {
	return []NaturalKey{
		NewKey("dashboard_id", d.DashboardID, false, func(v string) { d.DashboardID = v }),
		NewKey("route", d.Route, false, func(v string) { d.Route = v }),
	}
}

func (d *Dashboard) Snapshot() Snapshot {
	s := NewSnapshot().
		String("dashboard_id", d.DashboardID).
		String("title", d.Title).
		String("route", d.Route).
		String("layout_type", d.LayoutType).
		String("layout_config_json", d.LayoutConfigJSON).
		String("widgets_json", d.WidgetsJSON).
		String("global_filters_json", d.GlobalFiltersJSON).
		String("role_visibility_json", d.RoleVisibilityJSON)
	putMeta(&d.Meta, s)
	return *s
}

func (d *Dashboard) Restore(snap Snapshot) error {
	r := snap.Reader()
	d.DashboardID = r.String("dashboard_id")
	d.Title = r.String("title")
	d.Route = r.String("route")
	d.LayoutType = r.String("layout_type")
	d.LayoutConfigJSON = r.String("layout_config_json")
	d.WidgetsJSON = r.String("widgets_json")
	d.GlobalFiltersJSON = r.String("global_filters_json")
	d.RoleVisibilityJSON = r.String("role_visibility_json")
	restoreMeta(&d.Meta, r)
	return r.Err()
}

func (d *Dashboard) Bind(f Fields) error {
	if f.Has("dashboard_id") {
		d.DashboardID = KeyName(Clean(f["dashboard_id"], 120))
	}
	f.Text("title", &d.Title, 200)
	if f.Has("route") {
		d.Route = normalizeRoute(Clean(f["route"], 200))
	}
	if f.Has("layout_type") {
		d.LayoutType = strings.ToLower(f.Get("layout_type"))
	}
	if d.LayoutType != LayoutTree {
		d.LayoutType = LayoutGrid
	}
	if err := Require(
		Requirement{"title", d.Title},
		Requirement{"route", d.Route},
		Requirement{"dashboard_id", d.DashboardID},
	); err != nil {
		return err
	}
	if err := f.JSON("layout_config_json", &d.LayoutConfigJSON, ShapeObject); err != nil {
		return err
	}
	if err := f.JSON("widgets_json", &d.WidgetsJSON, ShapeArray); err != nil {
		return err
	}
	if err := f.JSON("global_filters_json", &d.GlobalFiltersJSON, ShapeArray); err != nil {
		return err
	}
	return f.JSON("role_visibility_json", &d.RoleVisibilityJSON, ShapeObject)
}

func normalizeRoute(route string) string {
	if route == "" {
		return ""
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}

// Widget is one entry of a dashboard's widget list.
type Widget map[string]interface{}

// ID returns the trimmed widget id.
func (w Widget) ID() string {
	raw, ok := w["id"]
	if !ok || raw == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}

// RoleRule controls which widgets a role sees.
type RoleRule struct {
	HiddenWidgets  []string `json:"hiddenWidgets"`
	AllowedWidgets []string `json:"allowedWidgets"`
	ShowAll        bool     `json:"showAll"`
}

// RolePreview is the dashboard as seen by one role.
type RolePreview struct {
	Role    string   `json:"role"`
	Rule    RoleRule `json:"rule"`
	Widgets []Widget `json:"widgets"`
	Hidden  int      `json:"hidden_count"`
}

// VisibleWidgets applies the role's visibility rule. Hidden widgets are always removed; when an
// allow list exists only listed widgets stay, unless the rule shows all.
func (d *Dashboard) VisibleWidgets(role string) RolePreview {
	preview := RolePreview{Role: role, Widgets: []Widget{}}

	var widgets []Widget
	if err := json.Unmarshal([]byte(d.WidgetsJSON), &widgets); err != nil {
		widgets = nil
	}
	var rules map[string]json.RawMessage
	if err := json.Unmarshal([]byte(d.RoleVisibilityJSON), &rules); err == nil {
		if raw, ok := rules[role]; ok {
			preview.Rule = parseRoleRule(raw)
		}
	}

	hidden := idSet(preview.Rule.HiddenWidgets)
	allowed := idSet(preview.Rule.AllowedWidgets)
	for _, widget := range widgets {
		id := widget.ID()
		if _, skip := hidden[id]; skip && id != "" {
			continue
		}
		if len(allowed) > 0 && id != "" && !preview.Rule.ShowAll {
			if _, ok := allowed[id]; !ok {
				continue
			}
		}
		preview.Widgets = append(preview.Widgets, widget)
	}
	preview.Hidden = len(widgets) - len(preview.Widgets)
	return preview
}

// parseRoleRule reads a rule leniently: widget ids may be strings or numbers, and showAll
// follows JSON truthiness. Malformed parts are ignored.
func parseRoleRule(raw json.RawMessage) RoleRule {
	var loose struct {
		HiddenWidgets  []interface{} `json:"hiddenWidgets"`
		AllowedWidgets []interface{} `json:"allowedWidgets"`
		ShowAll        interface{}   `json:"showAll"`
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return RoleRule{}
	}
	_ = json.Unmarshal(fields["hiddenWidgets"], &loose.HiddenWidgets)
	_ = json.Unmarshal(fields["allowedWidgets"], &loose.AllowedWidgets)
	_ = json.Unmarshal(fields["showAll"], &loose.ShowAll)

	return RoleRule{
		HiddenWidgets:  ruleIDs(loose.HiddenWidgets),
		AllowedWidgets: ruleIDs(loose.AllowedWidgets),
		ShowAll:        truthy(loose.ShowAll),
	}
}

func ruleIDs(values []interface{}) []string {
	ids := make([]string, 0, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		if id := strings.TrimSpace(fmt.Sprint(value)); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	}
	return false
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
