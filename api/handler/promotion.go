package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studio/api/transport"
	"github.com/fastygo/studio/pkg/httpcontext"
	promotionUC "github.com/fastygo/studio/usecase/promotion"
)

type PromotionHandler struct {
	baseHandler
	uc *promotionUC.UseCase
}

func NewPromotionHandler(uc *promotionUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PromotionHandler {
	return &PromotionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List promotions, newest first
// @Router /api/v1/promotions [get]
func (h *PromotionHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.uc.List(stdCtx, queryInt(ctx, "limit", 0))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondList(ctx, events, transport.ListMeta{Count: len(events)})
}

// @Summary Record a promotion of a stored version
// @Router /api/v1/promotions [post]
func (h *PromotionHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.PromotionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	event, err := h.uc.Promote(stdCtx, h.actor(ctx), promotionUC.PromoteInput{
		ResourceType:      req.ResourceType,
		ResourceID:        req.ResourceID,
		VersionNumber:     req.VersionNumber,
		TargetEnvironment: req.TargetEnvironment,
		Notes:             req.Notes,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, event)
}
