package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studio/api/transport"
	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/internal/export"
	"github.com/fastygo/studio/pkg/httpcontext"
	"github.com/fastygo/studio/repository"
)

// AuditLister is the read side of the audit recorder.
type AuditLister interface {
	List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEvent, error)
}

type AuditHandler struct {
	baseHandler
	events AuditLister
}

func NewAuditHandler(events AuditLister, adapter *httpcontext.Adapter, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		baseHandler: newBaseHandler(adapter, logger),
		events:      events,
	}
}

// @Summary Query the audit trail
// @Router /api/v1/audit [get]
func (h *AuditHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.events.List(stdCtx, auditFilter(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondList(ctx, events, transport.ListMeta{Count: len(events)})
}

// @Summary Export the audit trail as XLSX
// @Router /api/v1/audit/export [get]
func (h *AuditHandler) Export(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.events.List(stdCtx, auditFilter(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	data, err := export.AuditWorkbook(events)
	if err != nil {
		h.respondError(ctx, stdCtx, domain.WrapError(domain.ErrCodeInternal, "exporting audit", err))
		return
	}

	name := fmt.Sprintf("audit-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	ctx.Response.Header.SetContentType(export.AuditContentType)
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+name+`"`)
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(data)
}

func auditFilter(ctx *fasthttp.RequestCtx) repository.AuditFilter {
	return repository.AuditFilter{
		Domain:      queryString(ctx, "domain"),
		Action:      queryString(ctx, "action"),
		Environment: queryString(ctx, "environment"),
		EntityType:  queryString(ctx, "entity_type"),
		EntityID:    queryString(ctx, "entity_id"),
		Limit:       queryInt(ctx, "limit", 0),
	}
}
