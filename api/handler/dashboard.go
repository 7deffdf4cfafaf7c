package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/pkg/httpcontext"
	"github.com/fastygo/studio/usecase/document"
)

// DashboardPreviewHandler renders a dashboard as a given role would see it.
type DashboardPreviewHandler struct {
	baseHandler
	store *document.Store[*domain.Dashboard]
}

func NewDashboardPreviewHandler(store *document.Store[*domain.Dashboard], adapter *httpcontext.Adapter, logger *zap.Logger) *DashboardPreviewHandler {
	return &DashboardPreviewHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
	}
}

// @Summary Preview dashboard widgets for a role
// @Description Defaults to the caller's role.
// @Router /api/v1/dashboards/{id}/preview [get]
func (h *DashboardPreviewHandler) Preview(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	dash, err := h.store.Get(stdCtx, pathValue(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	role := queryString(ctx, "role")
	if role == "" {
		role = string(h.actor(ctx).Role)
	}
	h.respondSuccess(ctx, http.StatusOK, dash.VisibleWidgets(role))
}
