package domain

var PageKind = Kind{
	Name:     "page",
	Domain:   "pages",
	Label:    "Page",
	Workflow: true,
	Manage:   PermPagesManage,
	Publish:  PermStudioPublish,
}

const (
	defaultTemplateID = "default-page"
	defaultLocale     = "en-US"
)

// Page is a composed marketing page: a block tree rendered with a template.
type Page struct {
	Meta
	Slug              string `json:"slug"`
	Title             string `json:"title"`
	TemplateID        string `json:"template_id"`
	Locale            string `json:"locale"`
	SEOJSON           string `json:"seo_json"`
	BlocksTree        string `json:"blocks_tree"`
	ThemeOverrideJSON string `json:"theme_override_json"`
}

func NewPage() *Page {
	return &Page{Meta: Meta{Status: StatusDraft}}
}

func (p *Page) Kind() Kind          { return PageKind }
func (p *Page) DisplayName() string { return p.Title }
func (p *Page) Keys() []NaturalKey {
	return []NaturalKey{NewKey("slug", p.Slug, false, func(v string) { p.Slug = v })}
}

func (p *Page) Snapshot() Snapshot {
	s := NewSnapshot().
		String("slug", p.Slug).
		String("title", p.Title).
		String("template_id", p.TemplateID).
		String("locale", p.Locale).
		String("seo_json", p.SEOJSON).
		String("blocks_tree", p.BlocksTree).
		String("theme_override_json", p.ThemeOverrideJSON)
	putMeta(&p.Meta, s)
	return *s
}

func (p *Page) Restore(snap Snapshot) error {
	r := snap.Reader()
	p.Slug = r.String("slug")
	p.Title = r.String("title")
	p.TemplateID = r.String("template_id")
	p.Locale = r.String("locale")
	p.SEOJSON = r.String("seo_json")
	p.BlocksTree = r.String("blocks_tree")
	p.ThemeOverrideJSON = r.String("theme_override_json")
	restoreMeta(&p.Meta, r)
	return r.Err()
}

func (p *Page) Bind(f Fields) error {
	f.Text("title", &p.Title, 200)
	if f.Has("slug") {
		p.Slug = Slugify(Clean(f["slug"], 200))
	}
	f.Text("template_id", &p.TemplateID, 120)
	f.Text("locale", &p.Locale, 20)
	if p.TemplateID == "" {
		p.TemplateID = defaultTemplateID
	}
	if p.Locale == "" {
		p.Locale = defaultLocale
	}
	if err := Require(Requirement{"title", p.Title}, Requirement{"slug", p.Slug}); err != nil {
		return err
	}
	if err := f.JSON("seo_json", &p.SEOJSON, ShapeObject); err != nil {
		return err
	}
	if err := f.JSON("blocks_tree", &p.BlocksTree, ShapeObject); err != nil {
		return err
	}
	return f.JSON("theme_override_json", &p.ThemeOverrideJSON, ShapeObject)
}
