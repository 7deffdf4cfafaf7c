package handler

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studio/api/transport"
	"github.com/fastygo/studio/internal/registry"
	"github.com/fastygo/studio/pkg/httpcontext"
)

type RegistryHandler struct {
	baseHandler
	registry *registry.Registry
}

func NewRegistryHandler(reg *registry.Registry, adapter *httpcontext.Adapter, logger *zap.Logger) *RegistryHandler {
	return &RegistryHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    reg,
	}
}

// @Summary Enabled component and widget definitions
// @Router /api/v1/registry [get]
func (h *RegistryHandler) List(ctx *fasthttp.RequestCtx) {
	defs := h.registry.Definitions(queryString(ctx, "type"))
	h.respondList(ctx, defs, transport.ListMeta{Count: len(defs)})
}
