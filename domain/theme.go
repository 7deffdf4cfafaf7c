package domain

import "strings"

var ThemeKind = Kind{
	Name:     "theme_token_set",
	Domain:   "theme",
	Label:    "Theme token set",
	Workflow: true,
	Manage:   PermThemeManage,
	Publish:  PermStudioPublish,
}

// ThemeTokenSet is a named bundle of design tokens.
type ThemeTokenSet struct {
	Meta
	Key        string `json:"key"`
	Name       string `json:"name"`
	TokensJSON string `json:"tokens_json"`
}

func NewThemeTokenSet() *ThemeTokenSet {
	return &ThemeTokenSet{Meta: Meta{Status: StatusDraft}}
}

func (t *ThemeTokenSet) Kind() Kind          { return ThemeKind }
func (t *ThemeTokenSet) DisplayName() string { return t.Name }

func (t *ThemeTokenSet) Keys() []NaturalKey {
	return []NaturalKey{NewKey("key", t.Key, false, func(v string) { t.Key = v })}
}

func (t *ThemeTokenSet) Snapshot() Snapshot {
	s := NewSnapshot().
		String("key", t.Key).
		String("name", t.Name).
		String("tokens_json", t.TokensJSON)
	putMeta(&t.Meta, s)
	return *s
}

func (t *ThemeTokenSet) Restore(snap Snapshot) error {
	r := snap.Reader()
	t.Key = r.String("key")
	t.Name = r.String("name")
	t.TokensJSON = r.String("tokens_json")
	restoreMeta(&t.Meta, r)
	return r.Err()
}

func (t *ThemeTokenSet) Bind(f Fields) error {
	if f.Has("key") {
		t.Key = strings.ToLower(Clean(f["key"], 80))
	}
	if t.Key == "" {
		t.Key = "default"
	}
	f.Text("name", &t.Name, 160)
	if err := Require(Requirement{"name", t.Name}); err != nil {
		return err
	}
	return f.JSON("tokens_json", &t.TokensJSON, ShapeObject)
}
