package router

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/studio/api/handler"
	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/internal/export"
	"github.com/fastygo/studio/internal/infrastructure/monitor"
	sqliteinfra "github.com/fastygo/studio/internal/infrastructure/sqlite"
	"github.com/fastygo/studio/internal/middleware"
	"github.com/fastygo/studio/internal/registry"
	"github.com/fastygo/studio/pkg/httpcontext"
	"github.com/fastygo/studio/repository/sqlite"
	"github.com/fastygo/studio/usecase/audit"
	"github.com/fastygo/studio/usecase/document"
	"github.com/fastygo/studio/usecase/promotion"
)

const secret = "router-test"

type healthy struct{}

func (healthy) GetStatus() monitor.Status {
	return monitor.Status{Driver: "sqlite", Store: monitor.Probe{Enabled: true, Online: true}, Buffer: monitor.BufferStatus{Online: true}}
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Field  string          `json:"field"`
	Data   json.RawMessage `json:"data"`
	Meta   struct {
		Count int `json:"count"`
	} `json:"meta"`
}

type server struct {
	t       *testing.T
	handler fasthttp.RequestHandler
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	db, err := sqliteinfra.Open(ctx, filepath.Join(t.TempDir(), "studio.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqliteinfra.EnsureSchema(ctx, db))

	docs := sqlite.NewDocumentRepository(db)
	versions := sqlite.NewVersionRepository(db)
	recorder := audit.NewRecorder(sqlite.NewAuditRepository(db), audit.Options{Environment: "staging"}, nil)
	deps := document.Deps{Documents: docs, Versions: versions, Tx: sqlite.NewTransactor(db), Audit: recorder}

	pages := document.NewStore(document.PageDefinition(), deps)
	dashboards := document.NewStore(document.DashboardDefinition(), deps)
	services := document.NewStore(document.ServiceDefinition(), deps)

	reg, err := registry.Parse([]byte("definitions:\n  - key: hero\n    enabled: true\n"))
	require.NoError(t, err)

	adapter := httpcontext.NewAdapter(5*time.Second, false)
	r := New(Handlers{
		Documents: []DocumentRoutes{
			apiHandler.NewDocumentHandler(pages, adapter, nil),
			apiHandler.NewDocumentHandler(dashboards, adapter, nil),
			apiHandler.NewDocumentHandler(services, adapter, nil),
		},
		DashboardPreview: apiHandler.NewDashboardPreviewHandler(dashboards, adapter, nil),
		Audit:            apiHandler.NewAuditHandler(recorder, adapter, nil),
		Promotions: apiHandler.NewPromotionHandler(
			promotion.New(sqlite.NewPromotionRepository(db), docs, versions, recorder, "staging", nil), adapter, nil),
		Registry: apiHandler.NewRegistryHandler(reg, adapter, nil),
		Health:   apiHandler.NewHealthHandler(healthy{}, adapter, nil),
	}, middleware.JWTAuth(secret, nil))

	return &server{t: t, handler: r.Handler}
}

func (s *server) token(role domain.Role) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "u-" + string(role),
		"username": string(role),
		"role":     string(role),
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(s.t, err)
	return token
}

func (s *server) do(method, uri string, role domain.Role, body string) (*fasthttp.RequestCtx, envelope) {
	s.t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if role != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+s.token(role))
	}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	s.handler(ctx)

	var env envelope
	if string(ctx.Response.Header.ContentType()) == "application/json" {
		require.NoError(s.t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	}
	return ctx, env
}

func dataField(t *testing.T, env envelope, key string) interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data[key]
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	ctx, env := s.do(fasthttp.MethodGet, "/health", "", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "success", env.Status)
}

func TestDocumentLifecycle(t *testing.T) {
	s := newServer(t)

	ctx, _ := s.do(fasthttp.MethodGet, "/api/v1/pages", "", "")
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages", domain.RoleSupport, `{"title":"Home","slug":"home"}`)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages", domain.RoleEditor, `{"title":"Home","slug":"home","status":"published"}`)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode(), "editors cannot publish")

	ctx, env := s.do(fasthttp.MethodPost, "/api/v1/pages", domain.RoleEditor, `{"title":"Home","slug":"home","seo_json":{"title":"Home"},"change_note":"first"}`)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	id := dataField(t, env, "id").(string)
	assert.Equal(t, "draft", dataField(t, env, "status"))
	assert.Equal(t, `{"title":"Home"}`, dataField(t, env, "seo_json"))

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/pages", domain.RoleEditor, `{"title":"Other","slug":"home"}`)
	assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())
	assert.Equal(t, "slug", env.Field)

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/pages", domain.RoleEditor, `{"title":"Broken","slug":"broken","blocks_tree":"{nope"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "blocks_tree", env.Field)

	ctx, _ = s.do(fasthttp.MethodGet, "/api/v1/published/pages/home", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode(), "drafts are not live")

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/workflow", domain.RolePublisher, `{"status":"published"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.NotNil(t, dataField(t, env, "published_at"))

	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/published/pages/home", "", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, id, dataField(t, env, "id"))

	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/pages/"+id+"/versions", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 2, env.Meta.Count)

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/snapshot", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	assert.EqualValues(t, 3, dataField(t, env, "version_number"))

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/versions/1/restore", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "draft", dataField(t, env, "status"))

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/versions/x/restore", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx, env = s.do(fasthttp.MethodDelete, "/api/v1/pages/"+id, domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, true, dataField(t, env, "trashed"))

	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/pages?trashed=true", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 1, env.Meta.Count)

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/untrash", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodGet, "/api/v1/pages/missing", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestEditorsCannotPublishIndirectly(t *testing.T) {
	s := newServer(t)

	ctx, env := s.do(fasthttp.MethodPost, "/api/v1/pages", domain.RoleEditor, `{"title":"Home","slug":"home"}`)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	id := dataField(t, env, "id").(string)

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/workflow", domain.RolePublisher, `{"status":"published"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/workflow", domain.RolePublisher, `{"status":"draft"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/versions/2/restore", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode(), "restoring a published version publishes")
	ctx, _ = s.do(fasthttp.MethodGet, "/api/v1/published/pages/home", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/versions/2/restore", domain.RolePublisher, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/"+id+"/workflow", domain.RolePublisher,
		`{"status":"published","scheduled_publish_at":"2099-01-01T00:00"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	ctx, _ = s.do(fasthttp.MethodGet, "/api/v1/published/pages/home", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode(), "scheduled pages wait")

	ctx, _ = s.do(fasthttp.MethodPut, "/api/v1/pages/"+id, domain.RoleEditor, `{"scheduled_publish_at":""}`)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode(), "clearing the schedule publishes now")
	ctx, _ = s.do(fasthttp.MethodGet, "/api/v1/published/pages/home", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodPut, "/api/v1/pages/"+id, domain.RoleEditor, `{"title":"Welcome"}`)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), "content edits keep the schedule")
}

func TestCloneAndBulk(t *testing.T) {
	s := newServer(t)

	ctx, env := s.do(fasthttp.MethodPost, "/api/v1/services", domain.RoleEditor, `{"title":"Laptop Repair","description":"We fix laptops","sort_order":3}`)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	id := dataField(t, env, "id").(string)
	assert.Equal(t, "laptop-repair", dataField(t, env, "slug"))

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/services/"+id+"/clone", domain.RoleEditor, "")
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	cloneID := dataField(t, env, "id").(string)
	assert.Equal(t, "laptop-repair-copy", dataField(t, env, "slug"))

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/x/clone", domain.RoleAdmin, "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode(), "pages have no clone route")

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/bulk/services", domain.RoleEditor, `{"action":"publish","ids":["`+id+`"]}`)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/bulk/services", domain.RolePublisher, `{"action":"publish","ids":["`+id+`","`+cloneID+`","missing"]}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.EqualValues(t, 2, dataField(t, env, "processed"))
	assert.EqualValues(t, 1, dataField(t, env, "failed"))

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/bulk/services", domain.RolePublisher, `{"action":"archive","ids":["`+id+`"]}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/services?status=published&q=copy", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 1, env.Meta.Count)
}

func TestAutosave(t *testing.T) {
	s := newServer(t)

	ctx, env := s.do(fasthttp.MethodPost, "/api/v1/services", domain.RoleEditor, `{"title":"Repairs","description":"Fix things"}`)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	id := dataField(t, env, "id").(string)

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/services/"+id+"/autosave", domain.RoleEditor, `{"title":"Repairs and parts"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.NotEmpty(t, dataField(t, env, "saved_at"))

	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/services/"+id, domain.RoleEditor, "")
	assert.Equal(t, "Repairs and parts", dataField(t, env, "title"))
	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/services/"+id+"/versions", domain.RoleEditor, "")
	assert.Equal(t, 1, env.Meta.Count)

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/services/"+id+"/autosave", domain.RoleEditor, `{"status":"published"}`)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/pages/x/autosave", domain.RoleAdmin, "{}")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode(), "pages have no autosave route")
}

func TestDashboardPreviewAndPromotion(t *testing.T) {
	s := newServer(t)

	body := `{"title":"Ops","route":"/ops","dashboard_id":"ops",
		"widgets_json":[{"id":"w1"},{"id":"w2"}],
		"role_visibility_json":{"editor":{"hiddenWidgets":["w2"]}}}`
	ctx, _ := s.do(fasthttp.MethodPost, "/api/v1/dashboards", domain.RoleEditor, body)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode(), "editors cannot manage dashboards")

	ctx, env := s.do(fasthttp.MethodPost, "/api/v1/dashboards", domain.RoleReviewer, body)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	id := dataField(t, env, "id").(string)

	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/dashboards/"+id+"/preview?role=editor", domain.RoleEditor, "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.EqualValues(t, 1, dataField(t, env, "hidden_count"))

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/promotions", domain.RolePublisher, `{"resource_type":"dashboard","resource_id":"`+id+`","version_number":1,"target_environment":"production"}`)
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	ctx, env = s.do(fasthttp.MethodPost, "/api/v1/promotions", domain.RoleAdmin, `{"resource_type":"dashboard","resource_id":"`+id+`","version_number":1,"target_environment":"production"}`)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	assert.Equal(t, "staging", dataField(t, env, "source_environment"))

	ctx, _ = s.do(fasthttp.MethodPost, "/api/v1/promotions", domain.RoleAdmin, `{"resource_type":"dashboard","resource_id":"`+id+`","version_number":9,"target_environment":"production"}`)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/promotions", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 1, env.Meta.Count)
}

func TestAuditAndRegistry(t *testing.T) {
	s := newServer(t)
	ctx, _ := s.do(fasthttp.MethodPost, "/api/v1/pages", domain.RoleEditor, `{"title":"Home","slug":"home"}`)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

	ctx, _ = s.do(fasthttp.MethodGet, "/api/v1/audit", domain.RoleEditor, "")
	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())

	ctx, env := s.do(fasthttp.MethodGet, "/api/v1/audit?domain=pages&action=create", domain.RoleAdmin, "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 1, env.Meta.Count)

	ctx, _ = s.do(fasthttp.MethodGet, "/api/v1/audit/export", domain.RoleAdmin, "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, export.AuditContentType, string(ctx.Response.Header.ContentType()))
	assert.Contains(t, string(ctx.Response.Header.Peek("Content-Disposition")), ".xlsx")
	assert.NotEmpty(t, ctx.Response.Body())

	ctx, env = s.do(fasthttp.MethodGet, "/api/v1/registry", domain.RoleSupport, "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 1, env.Meta.Count)
}
