package document

import (
	"context"
	"errors"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
)

func PageDefinition() Definition[*domain.Page] {
	return Definition[*domain.Page]{New: domain.NewPage}
}

func DashboardDefinition() Definition[*domain.Dashboard] {
	return Definition[*domain.Dashboard]{New: domain.NewDashboard}
}

func ServiceDefinition() Definition[*domain.Service] {
	return Definition[*domain.Service]{New: domain.NewService}
}

func PostDefinition() Definition[*domain.Post] {
	return Definition[*domain.Post]{New: domain.NewPost}
}

func IndustryDefinition() Definition[*domain.Industry] {
	return Definition[*domain.Industry]{New: domain.NewIndustry}
}

func ThemeDefinition() Definition[*domain.ThemeTokenSet] {
	return Definition[*domain.ThemeTokenSet]{New: domain.NewThemeTokenSet}
}

func ContentTypeDefinition() Definition[*domain.ContentType] {
	return Definition[*domain.ContentType]{New: domain.NewContentType}
}

// ContentEntryDefinition checks that the referenced content type exists.
func ContentEntryDefinition(docs repository.DocumentRepository) Definition[*domain.ContentEntry] {
	return Definition[*domain.ContentEntry]{
		New:      domain.NewContentEntry,
		KeyField: "entry_key",
		Validate: func(ctx context.Context, entry *domain.ContentEntry) error {
			_, err := docs.Get(ctx, domain.ContentTypeKind.Name, entry.ContentTypeID)
			if errors.Is(err, domain.ErrDocumentNotFound) {
				return domain.Invalid("content_type_id", "content type not found")
			}
			if err != nil {
				return domain.WrapError(domain.ErrCodeInternal, "loading content type", err)
			}
			return nil
		},
	}
}
