package domain

var PostKind = Kind{
	Name:      "post",
	Domain:    "posts",
	Label:     "Post",
	Workflow:  true,
	Cloneable: true,
	Autosave:  true,
	Manage:    PermContentManage,
	Publish:   PermWorkflowPublish,
}

// Post is a blog article.
type Post struct {
	Meta
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Excerpt        string `json:"excerpt"`
	Content        string `json:"content"`
	FeaturedImage  string `json:"featured_image"`
	CategoryID     string `json:"category_id"`
	SEOTitle       string `json:"seo_title"`
	SEODescription string `json:"seo_description"`
	OGImage        string `json:"og_image"`

	slugDerived bool
}

func NewPost() *Post {
	return &Post{Meta: Meta{Status: StatusDraft}}
}

func (p *Post) Kind() Kind          { return PostKind }
func (p *Post) DisplayName() string { return p.Title }

// IsPublished mirrors the workflow stage for readers of the legacy flag.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

func (p *Post) Keys() []NaturalKey {
	return []NaturalKey{NewKey("slug", p.Slug, p.slugDerived, func(v string) { p.Slug = v })}
}

func (p *Post) Snapshot() Snapshot {
	s := NewSnapshot().
		String("title", p.Title).
		String("slug", p.Slug).
		String("excerpt", p.Excerpt).
		String("content", p.Content).
		String("featured_image", p.FeaturedImage).
		String("category_id", p.CategoryID).
		String("seo_title", p.SEOTitle).
		String("seo_description", p.SEODescription).
		String("og_image", p.OGImage).
		Bool("is_published", p.IsPublished())
	putMeta(&p.Meta, s)
	return *s
}

func (p *Post) Restore(snap Snapshot) error {
	r := snap.Reader()
	p.Title = r.String("title")
	p.Slug = r.String("slug")
	p.Excerpt = r.String("excerpt")
	p.Content = r.String("content")
	p.FeaturedImage = r.String("featured_image")
	p.CategoryID = r.String("category_id")
	p.SEOTitle = r.String("seo_title")
	p.SEODescription = r.String("seo_description")
	p.OGImage = r.String("og_image")
	restoreMeta(&p.Meta, r)
	return r.Err()
}

func (p *Post) Bind(f Fields) error {
	f.Text("title", &p.Title, 200)
	f.Text("excerpt", &p.Excerpt, 500)
	f.Text("content", &p.Content, 0)
	f.Text("featured_image", &p.FeaturedImage, 255)
	f.Text("category_id", &p.CategoryID, 64)
	f.Text("seo_title", &p.SEOTitle, 200)
	f.Text("seo_description", &p.SEODescription, 320)
	f.Text("og_image", &p.OGImage, 255)
	if err := Require(Requirement{"title", p.Title}, Requirement{"content", p.Content}); err != nil {
		return err
	}
	bindSlug(f, &p.Slug, &p.slugDerived, p.Title)
	return nil
}

func (p *Post) PrepareClone() {
	p.Meta.resetForClone()
	p.Title = Clean(p.Title+" (Copy)", 200)
	p.Slug = cloneSlug(p.Slug)
	p.slugDerived = true
}
