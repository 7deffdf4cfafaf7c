package domain

var IndustryKind = Kind{
	Name:      "industry",
	Domain:    "industries",
	Label:     "Industry",
	Workflow:  true,
	Cloneable: true,
	Autosave:  true,
	Manage:    PermContentManage,
	Publish:   PermWorkflowPublish,
}

const defaultIndustryIcon = "fa-solid fa-building"

// Industry is a vertical landing page with its challenges and solutions.
type Industry struct {
	Meta
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Description     string `json:"description"`
	IconClass       string `json:"icon_class"`
	HeroDescription string `json:"hero_description"`
	Challenges      string `json:"challenges"`
	Solutions       string `json:"solutions"`
	Stats           string `json:"stats"`
	SortOrder       int    `json:"sort_order"`
	SEOTitle        string `json:"seo_title"`
	SEODescription  string `json:"seo_description"`
	OGImage         string `json:"og_image"`

	slugDerived bool
}

func NewIndustry() *Industry {
	return &Industry{Meta: Meta{Status: StatusDraft}, IconClass: defaultIndustryIcon}
}

func (i *Industry) Kind() Kind          { return IndustryKind }
func (i *Industry) DisplayName() string { return i.Title }

func (i *Industry) Keys() []NaturalKey {
	return []NaturalKey{NewKey("slug", i.Slug, i.slugDerived, func(v string) { i.Slug = v })}
}

func (i *Industry) Snapshot() Snapshot {
	s := NewSnapshot().
		String("title", i.Title).
		String("slug", i.Slug).
		String("description", i.Description).
		String("icon_class", i.IconClass).
		String("hero_description", i.HeroDescription).
		String("challenges", i.Challenges).
		String("solutions", i.Solutions).
		String("stats", i.Stats).
		Int("sort_order", i.SortOrder).
		String("seo_title", i.SEOTitle).
		String("seo_description", i.SEODescription).
		String("og_image", i.OGImage)
	putMeta(&i.Meta, s)
	return *s
}

func (i *Industry) Restore(snap Snapshot) error {
	r := snap.Reader()
	i.Title = r.String("title")
	i.Slug = r.String("slug")
	i.Description = r.String("description")
	i.IconClass = r.String("icon_class")
	i.HeroDescription = r.String("hero_description")
	i.Challenges = r.String("challenges")
	i.Solutions = r.String("solutions")
	i.Stats = r.String("stats")
	i.SortOrder = r.Int("sort_order")
	i.SEOTitle = r.String("seo_title")
	i.SEODescription = r.String("seo_description")
	i.OGImage = r.String("og_image")
	restoreMeta(&i.Meta, r)
	return r.Err()
}

func (i *Industry) Bind(f Fields) error {
	f.Text("title", &i.Title, 200)
	f.Text("description", &i.Description, 0)
	f.Text("icon_class", &i.IconClass, 100)
	f.Text("hero_description", &i.HeroDescription, 0)
	f.Text("challenges", &i.Challenges, 0)
	f.Text("solutions", &i.Solutions, 0)
	f.Text("stats", &i.Stats, 0)
	f.Int("sort_order", &i.SortOrder)
	f.Text("seo_title", &i.SEOTitle, 200)
	f.Text("seo_description", &i.SEODescription, 320)
	f.Text("og_image", &i.OGImage, 255)
	if i.IconClass == "" {
		i.IconClass = defaultIndustryIcon
	}
	if err := Require(Requirement{"title", i.Title}, Requirement{"description", i.Description}); err != nil {
		return err
	}
	bindSlug(f, &i.Slug, &i.slugDerived, i.Title)
	return nil
}

func (i *Industry) PrepareClone() {
	i.Meta.resetForClone()
	i.Title = Clean(i.Title+" (Copy)", 200)
	i.Slug = cloneSlug(i.Slug)
	i.slugDerived = true
}
