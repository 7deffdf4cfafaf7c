package bootstrap

import (
	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/usecase/document"
)

// Stores holds one document store per kind, all sharing the same dependencies.
type Stores struct {
	Pages          *document.Store[*domain.Page]
	Dashboards     *document.Store[*domain.Dashboard]
	Services       *document.Store[*domain.Service]
	Posts          *document.Store[*domain.Post]
	Industries     *document.Store[*domain.Industry]
	Themes         *document.Store[*domain.ThemeTokenSet]
	ContentTypes   *document.Store[*domain.ContentType]
	ContentEntries *document.Store[*domain.ContentEntry]
}

func NewStores(deps document.Deps) *Stores {
	return &Stores{
		Pages:          document.NewStore(document.PageDefinition(), deps),
		Dashboards:     document.NewStore(document.DashboardDefinition(), deps),
		Services:       document.NewStore(document.ServiceDefinition(), deps),
		Posts:          document.NewStore(document.PostDefinition(), deps),
		Industries:     document.NewStore(document.IndustryDefinition(), deps),
		Themes:         document.NewStore(document.ThemeDefinition(), deps),
		ContentTypes:   document.NewStore(document.ContentTypeDefinition(), deps),
		ContentEntries: document.NewStore(document.ContentEntryDefinition(deps.Documents), deps),
	}
}

// Kinds lists the kind of every store in registration order.
func (s *Stores) Kinds() []domain.Kind {
	return []domain.Kind{
		s.Pages.Kind(),
		s.Dashboards.Kind(),
		s.Services.Kind(),
		s.Posts.Kind(),
		s.Industries.Kind(),
		s.Themes.Kind(),
		s.ContentTypes.Kind(),
		s.ContentEntries.Kind(),
	}
}
