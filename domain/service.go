package domain

import "strings"

var ServiceKind = Kind{
	Name:      "service",
	Domain:    "services",
	Label:     "Service",
	Workflow:  true,
	Cloneable: true,
	Autosave:  true,
	Manage:    PermContentManage,
	Publish:   PermWorkflowPublish,
}

const (
	ServiceProfessional = "professional"
	ServiceRepair       = "repair"

	defaultServiceIcon = "fa-solid fa-gear"
)

// Service is an offering shown in the public catalogue.
type Service struct {
	Meta
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	IconClass      string `json:"icon_class"`
	Image          string `json:"image"`
	ServiceType    string `json:"service_type"`
	IsFeatured     bool   `json:"is_featured"`
	SortOrder      int    `json:"sort_order"`
	ProfileJSON    string `json:"profile_json"`
	SEOTitle       string `json:"seo_title"`
	SEODescription string `json:"seo_description"`
	OGImage        string `json:"og_image"`

	slugDerived bool
}

func NewService() *Service {
	return &Service{Meta: Meta{Status: StatusDraft}, ServiceType: ServiceProfessional, IconClass: defaultServiceIcon}
}

func (s *Service) Kind() Kind          { return ServiceKind }
func (s *Service) DisplayName() string { return s.Title }

func (s *Service) Keys() []NaturalKey {
	return []NaturalKey{NewKey("slug", s.Slug, s.slugDerived, func(v string) { s.Slug = v })}
}

func (s *Service) Snapshot() Snapshot {
	snap := NewSnapshot().
		String("title", s.Title).
		String("slug", s.Slug).
		String("description", s.Description).
		String("icon_class", s.IconClass).
		String("image", s.Image).
		String("service_type", s.ServiceType).
		Bool("is_featured", s.IsFeatured).
		Int("sort_order", s.SortOrder).
		String("profile_json", s.ProfileJSON).
		String("seo_title", s.SEOTitle).
		String("seo_description", s.SEODescription).
		String("og_image", s.OGImage)
	putMeta(&s.Meta, snap)
	return *snap
}

func (s *Service) Restore(snap Snapshot) error {
	r := snap.Reader()
	s.Title = r.String("title")
	s.Slug = r.String("slug")
	s.Description = r.String("description")
	s.IconClass = r.String("icon_class")
	s.Image = r.String("image")
	s.ServiceType = r.String("service_type")
	s.IsFeatured = r.Bool("is_featured")
	s.SortOrder = r.Int("sort_order")
	s.ProfileJSON = r.String("profile_json")
	s.SEOTitle = r.String("seo_title")
	s.SEODescription = r.String("seo_description")
	s.OGImage = r.String("og_image")
	restoreMeta(&s.Meta, r)
	return r.Err()
}

func (s *Service) Bind(f Fields) error {
	f.Text("title", &s.Title, 200)
	f.Text("description", &s.Description, 0)
	f.Text("icon_class", &s.IconClass, 100)
	f.Text("image", &s.Image, 255)
	f.Bool("is_featured", &s.IsFeatured)
	f.Int("sort_order", &s.SortOrder)
	f.Text("seo_title", &s.SEOTitle, 200)
	f.Text("seo_description", &s.SEODescription, 320)
	f.Text("og_image", &s.OGImage, 255)
	if f.Has("service_type") {
		s.ServiceType = strings.ToLower(f.Get("service_type"))
	}
	if s.ServiceType != ServiceRepair {
		s.ServiceType = ServiceProfessional
	}
	if s.IconClass == "" {
		s.IconClass = defaultServiceIcon
	}
	if err := Require(Requirement{"title", s.Title}, Requirement{"description", s.Description}); err != nil {
		return err
	}
	if err := f.JSON("profile_json", &s.ProfileJSON, ShapeAny); err != nil {
		return err
	}
	bindSlug(f, &s.Slug, &s.slugDerived, s.Title)
	return nil
}

func (s *Service) PrepareClone() {
	s.Meta.resetForClone()
	s.Title = Clean(s.Title+" (Copy)", 200)
	s.Slug = cloneSlug(s.Slug)
	s.slugDerived = true
	s.IsFeatured = false
}

// bindSlug takes an explicit slug when one is submitted, otherwise derives one from the title
// for documents that have none yet. Derived slugs are de-duplicated rather than rejected.
func bindSlug(f Fields, slug *string, derived *bool, title string) {
	if raw := f.Get("slug"); raw != "" {
		*slug = Slugify(Clean(raw, 200))
		*derived = false
		if *slug != "" {
			return
		}
	}
	if *slug == "" {
		*slug = Slugify(Clean(title, 200))
		if *slug == "" {
			*slug = "item"
		}
		*derived = true
	}
}

func cloneSlug(slug string) string {
	base := strings.Trim(slug, "-")
	if base == "" {
		base = "item"
	}
	return base + "-copy"
}
