package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocuments(t *testing.T) map[string]func() (Document, Document) {
	t.Helper()
	published := time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)
	scheduled := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	meta := Meta{Status: StatusPublished, PublishedAt: &published, ScheduledPublishAt: &scheduled}

	return map[string]func() (Document, Document){
		"page": func() (Document, Document) {
			return &Page{Meta: meta, Slug: "home", Title: "Home", TemplateID: "landing", Locale: "en-GB",
				SEOJSON: `{"title":"Home"}`, BlocksTree: `{"root":[{"type":"hero"}]}`, ThemeOverrideJSON: `{}`}, NewPage()
		},
		"dashboard": func() (Document, Document) {
			return &Dashboard{Meta: meta, DashboardID: "ops", Title: "Ops", Route: "/ops", LayoutType: LayoutTree,
				LayoutConfigJSON: `{"cols":12}`, WidgetsJSON: `[{"id":"w1"}]`, GlobalFiltersJSON: `[]`,
				RoleVisibilityJSON: `{"editor":{"hiddenWidgets":["w1"]}}`}, NewDashboard()
		},
		"service": func() (Document, Document) {
			return &Service{Meta: meta, Title: "Repairs", Slug: "repairs", Description: "Fix things", IconClass: "fa-solid fa-wrench",
				ServiceType: ServiceRepair, IsFeatured: true, SortOrder: 4, ProfileJSON: `[1,2]`, SEOTitle: "Repairs"}, NewService()
		},
		"post": func() (Document, Document) {
			return &Post{Meta: meta, Title: "Hello", Slug: "hello", Excerpt: "Hi", Content: "Body", CategoryID: "7"}, NewPost()
		},
		"industry": func() (Document, Document) {
			return &Industry{Meta: meta, Title: "Retail", Slug: "retail", Description: "Shops", IconClass: "fa-solid fa-shop",
				Challenges: "Margins", Solutions: "Automation", Stats: "99%", SortOrder: 2}, NewIndustry()
		},
		"theme": func() (Document, Document) {
			return &ThemeTokenSet{Meta: meta, Key: "default", Name: "Default", TokensJSON: `{"color":{"primary":"#000"}}`}, NewThemeTokenSet()
		},
		"content type": func() (Document, Document) {
			return &ContentType{Key: "faq", Name: "FAQ", Description: "Questions", SchemaJSON: `{"fields":[]}`, IsEnabled: true}, NewContentType()
		},
		"content entry": func() (Document, Document) {
			return &ContentEntry{Meta: meta, ContentTypeID: "ct-1", EntryKey: "shipping", Title: "Shipping", Locale: "en-US",
				DataJSON: `{"q":"How long?"}`}, NewContentEntry()
		},
	}
}

func TestSnapshotRoundTrip_AllKinds(t *testing.T) {
	for name, build := range sampleDocuments(t) {
		t.Run(name, func(t *testing.T) {
			original, blank := build()
			first := original.Snapshot().Bytes()
			assert.Equal(t, first, original.Snapshot().Bytes(), "re-serializing must be byte identical")

			parsed, err := ParseSnapshot(first)
			require.NoError(t, err)
			require.NoError(t, blank.Restore(parsed))
			assert.Equal(t, string(first), string(blank.Snapshot().Bytes()))
		})
	}
}

func TestRecord_LoadRestoresStoredColumns(t *testing.T) {
	page := &Page{Meta: Meta{ID: "p1", Status: StatusReview, CreatedBy: "alice"}, Slug: "about", Title: "About",
		TemplateID: defaultTemplateID, Locale: defaultLocale, SEOJSON: "{}", BlocksTree: "{}", ThemeOverrideJSON: "{}"}
	rec := NewRecord(page)
	assert.Equal(t, "page", rec.Kind)
	assert.Equal(t, "About", rec.Title)
	assert.Equal(t, []KeyValue{{Field: "slug", Value: "about"}}, rec.Keys)

	loaded := NewPage()
	require.NoError(t, rec.Load(loaded))
	assert.Equal(t, page, loaded)
}

func TestPageBind(t *testing.T) {
	t.Run("requires title and slug", func(t *testing.T) {
		err := NewPage().Bind(Fields{"title": " "})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Equal(t, "title and slug are required", err.Error())
		assert.Equal(t, "title", FieldOf(err))
	})

	t.Run("defaults and JSON normalization", func(t *testing.T) {
		page := NewPage()
		require.NoError(t, page.Bind(Fields{"title": "Home", "slug": "Home Page!", "seo_json": `{ "b": 1, "a": 2 }`}))
		assert.Equal(t, "home-page", page.Slug)
		assert.Equal(t, defaultTemplateID, page.TemplateID)
		assert.Equal(t, defaultLocale, page.Locale)
		assert.Equal(t, `{"b":1,"a":2}`, page.SEOJSON)
		assert.Equal(t, "{}", page.BlocksTree)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		err := NewPage().Bind(Fields{"title": "Home", "slug": "home", "blocks_tree": "{nope"})
		require.Error(t, err)
		assert.Equal(t, "invalid JSON (blocks_tree)", err.Error())
		assert.Equal(t, "blocks_tree", FieldOf(err))
	})

	t.Run("rejects wrong JSON shape", func(t *testing.T) {
		err := NewPage().Bind(Fields{"title": "Home", "slug": "home", "seo_json": "[1]"})
		require.Error(t, err)
		assert.Equal(t, "seo_json must be a JSON object", err.Error())
	})

	t.Run("partial input keeps current values", func(t *testing.T) {
		page := NewPage()
		require.NoError(t, page.Bind(Fields{"title": "Home", "slug": "home", "locale": "de-DE"}))
		require.NoError(t, page.Bind(Fields{"title": "Start"}))
		assert.Equal(t, "home", page.Slug)
		assert.Equal(t, "de-DE", page.Locale)
		assert.Equal(t, "Start", page.Title)
	})
}

func TestDashboardBind(t *testing.T) {
	dash := NewDashboard()
	err := dash.Bind(Fields{"title": "Ops"})
	require.Error(t, err)
	assert.Equal(t, "route and dashboard_id are required", err.Error())

	dash = NewDashboard()
	require.NoError(t, dash.Bind(Fields{"title": "Ops", "route": "ops/main", "dashboard_id": "Ops Board", "layout_type": "weird"}))
	assert.Equal(t, "/ops/main", dash.Route)
	assert.Equal(t, "ops_board", dash.DashboardID)
	assert.Equal(t, LayoutGrid, dash.LayoutType)
	assert.Equal(t, "[]", dash.WidgetsJSON)

	err = dash.Bind(Fields{"widgets_json": `{"id":"x"}`})
	require.Error(t, err)
	assert.Equal(t, "widgets_json must be a JSON array", err.Error())
	assert.Len(t, dash.Keys(), 2)
}

func TestServiceBind_DerivesSlug(t *testing.T) {
	svc := NewService()
	require.NoError(t, svc.Bind(Fields{"title": "Laptop Repair", "description": "We fix laptops", "service_type": "REPAIR"}))
	assert.Equal(t, "laptop-repair", svc.Slug)
	assert.Equal(t, ServiceRepair, svc.ServiceType)
	assert.Equal(t, defaultServiceIcon, svc.IconClass)
	require.Len(t, svc.Keys(), 1)
	assert.True(t, svc.Keys()[0].Derived)

	explicit := NewService()
	require.NoError(t, explicit.Bind(Fields{"title": "Consulting", "description": "Advice", "slug": "advice"}))
	assert.Equal(t, "advice", explicit.Slug)
	assert.False(t, explicit.Keys()[0].Derived)

	err := NewService().Bind(Fields{"title": "x", "description": "y", "profile_json": "{bad"})
	require.Error(t, err)
	assert.Equal(t, "invalid JSON (profile_json)", err.Error())

	require.NoError(t, NewService().Bind(Fields{"title": "x", "description": "y", "profile_json": `"scalar"`}))
}

func TestNaturalKeyAssign(t *testing.T) {
	svc := NewService()
	require.NoError(t, svc.Bind(Fields{"title": "Cleaning", "description": "Spotless"}))
	svc.Keys()[0].Assign("cleaning-2")
	assert.Equal(t, "cleaning-2", svc.Slug)
}

func TestPrepareClone(t *testing.T) {
	now := time.Now()
	post := &Post{Meta: Meta{ID: "p1", Status: StatusPublished, PublishedAt: &now, CreatedBy: "alice"},
		Title: "Hello", Slug: "hello", Content: "Body"}
	post.PrepareClone()

	assert.Equal(t, "Hello (Copy)", post.Title)
	assert.Equal(t, "hello-copy", post.Slug)
	assert.Equal(t, Meta{Status: StatusDraft}, post.Meta)
	assert.True(t, post.Keys()[0].Derived)
	assert.False(t, post.IsPublished())
}

func TestContentEntryKeys(t *testing.T) {
	entry := NewContentEntry()
	assert.Empty(t, entry.Keys())
	require.NoError(t, entry.Bind(Fields{"content_type_id": "ct-1", "entry_key": "Free Shipping", "title": "Free shipping"}))
	require.Len(t, entry.Keys(), 1)
	assert.Equal(t, "ct-1/en-US/free_shipping", entry.Keys()[0].Value)
}

func TestThemeBind(t *testing.T) {
	theme := NewThemeTokenSet()
	require.NoError(t, theme.Bind(Fields{"name": "Night", "key": "  NIGHT "}))
	assert.Equal(t, "night", theme.Key)
	assert.Equal(t, "{}", theme.TokensJSON)

	fallback := NewThemeTokenSet()
	require.NoError(t, fallback.Bind(Fields{"name": "Base"}))
	assert.Equal(t, "default", fallback.Key)
}

func TestRequireMessages(t *testing.T) {
	assert.NoError(t, Require(Requirement{"a", "x"}))
	assert.EqualError(t, Require(Requirement{"a", ""}), "a is required")
	assert.EqualError(t, Require(Requirement{"a", ""}, Requirement{"b", ""}, Requirement{"c", ""}), "a, b and c are required")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("  Hello,   World! "))
	assert.Equal(t, "cafe-2", Slugify("cafe--2"))
	assert.Equal(t, "", Slugify("!!!"))
	assert.Equal(t, "my_key", KeyName(" My Key "))
}
