package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/studio/api/handler"
	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/internal/middleware"
)

// DocumentRoutes is the HTTP surface of one document kind; apiHandler.DocumentHandler
// implements it for every kind.
type DocumentRoutes interface {
	Kind() domain.Kind
	List(ctx *fasthttp.RequestCtx)
	Get(ctx *fasthttp.RequestCtx)
	Create(ctx *fasthttp.RequestCtx)
	Update(ctx *fasthttp.RequestCtx)
	Delete(ctx *fasthttp.RequestCtx)
	Untrash(ctx *fasthttp.RequestCtx)
	Workflow(ctx *fasthttp.RequestCtx)
	Snapshot(ctx *fasthttp.RequestCtx)
	Versions(ctx *fasthttp.RequestCtx)
	Restore(ctx *fasthttp.RequestCtx)
	Clone(ctx *fasthttp.RequestCtx)
	Autosave(ctx *fasthttp.RequestCtx)
	Bulk(ctx *fasthttp.RequestCtx)
	Published(ctx *fasthttp.RequestCtx)
}

type Handlers struct {
	Documents        []DocumentRoutes
	DashboardPreview *apiHandler.DashboardPreviewHandler
	Audit            *apiHandler.AuditHandler
	Promotions       *apiHandler.PromotionHandler
	Registry         *apiHandler.RegistryHandler
	Health           *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware middleware.Middleware) *router.Router {
	r := router.New()

	guard := func(perm domain.Permission, h fasthttp.RequestHandler) fasthttp.RequestHandler {
		return authMiddleware(middleware.RequirePermission(perm)(h))
	}

	r.GET("/health", handlers.Health.Check)

	r.GET("/api/v1/registry", guard(domain.PermStudioView, handlers.Registry.List))

	r.GET("/api/v1/audit", guard(domain.PermAuditView, handlers.Audit.List))
	r.GET("/api/v1/audit/export", guard(domain.PermAuditView, handlers.Audit.Export))

	r.GET("/api/v1/promotions", guard(domain.PermStudioView, handlers.Promotions.List))
	r.POST("/api/v1/promotions", guard(domain.PermEnvironmentsManage, handlers.Promotions.Create))

	for _, docs := range handlers.Documents {
		kind := docs.Kind()
		base := "/api/v1/" + kind.Domain
		item := base + "/{id}"

		// Headless reads are public.
		r.GET("/api/v1/published/"+kind.Domain+"/{key:*}", docs.Published)

		r.GET(base, guard(domain.PermStudioView, docs.List))
		r.POST(base, guard(kind.Manage, docs.Create))
		r.POST("/api/v1/bulk/"+kind.Domain, guard(kind.Manage, docs.Bulk))

		r.GET(item, guard(domain.PermStudioView, docs.Get))
		r.PUT(item, guard(kind.Manage, docs.Update))
		r.DELETE(item, guard(kind.Manage, docs.Delete))
		r.POST(item+"/untrash", guard(kind.Manage, docs.Untrash))
		r.POST(item+"/snapshot", guard(kind.Manage, docs.Snapshot))
		r.GET(item+"/versions", guard(domain.PermStudioView, docs.Versions))
		r.POST(item+"/versions/{number}/restore", guard(kind.Manage, docs.Restore))
		if kind.Workflow {
			r.POST(item+"/workflow", guard(kind.Manage, docs.Workflow))
		}
		if kind.Cloneable {
			r.POST(item+"/clone", guard(kind.Manage, docs.Clone))
		}
		if kind.Autosave {
			r.POST(item+"/autosave", guard(kind.Manage, docs.Autosave))
		}
	}

	if handlers.DashboardPreview != nil {
		r.GET("/api/v1/"+domain.DashboardKind.Domain+"/{id}/preview", guard(domain.PermStudioView, handlers.DashboardPreview.Preview))
	}

	return r
}
