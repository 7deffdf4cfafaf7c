package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studio/api/transport"
	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/pkg/httpcontext"
	"github.com/fastygo/studio/usecase/document"
)

// DocumentHandler exposes one document kind over HTTP.
type DocumentHandler[T domain.Document] struct {
	baseHandler
	store *document.Store[T]
}

func NewDocumentHandler[T domain.Document](store *document.Store[T], adapter *httpcontext.Adapter, logger *zap.Logger) *DocumentHandler[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler[T]{
		baseHandler: newBaseHandler(adapter, logger.With(zap.String("kind", store.Kind().Name))),
		store:       store,
	}
}

func (h *DocumentHandler[T]) Kind() domain.Kind {
	return h.store.Kind()
}

// @Summary List documents
// @Router /api/v1/{domain} [get]
func (h *DocumentHandler[T]) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	filter := document.ListFilter{
		Query:   queryString(ctx, "q"),
		Status:  queryString(ctx, "status"),
		Trashed: queryBool(ctx, "trashed"),
		Limit:   queryInt(ctx, "limit", 50),
		Offset:  queryInt(ctx, "offset", 0),
	}
	docs, err := h.store.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondList(ctx, docs, transport.ListMeta{Count: len(docs), Limit: filter.Limit, Offset: filter.Offset})
}

// @Summary Get document
// @Router /api/v1/{domain}/{id} [get]
func (h *DocumentHandler[T]) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	doc, err := h.store.Get(stdCtx, pathValue(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, doc)
}

// @Summary Create document
// @Router /api/v1/{domain} [post]
func (h *DocumentHandler[T]) Create(ctx *fasthttp.RequestCtx) {
	h.save(ctx, "", http.StatusCreated)
}

// @Summary Update document
// @Router /api/v1/{domain}/{id} [put]
func (h *DocumentHandler[T]) Update(ctx *fasthttp.RequestCtx) {
	id := pathValue(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing id")
		return
	}
	h.save(ctx, id, http.StatusOK)
}

func (h *DocumentHandler[T]) save(ctx *fasthttp.RequestCtx, id string, status int) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	req, err := transport.DecodeDocument(ctx.PostBody())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	doc, err := h.store.Save(stdCtx, h.actor(ctx), document.SaveInput{ID: id, Fields: req.Fields, ChangeNote: req.ChangeNote})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, status, doc)
}

// @Summary Trash or delete document
// @Description The first delete moves the document to the trash, the second removes it.
// @Router /api/v1/{domain}/{id} [delete]
func (h *DocumentHandler[T]) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	removed, err := h.store.Delete(stdCtx, h.actor(ctx), pathValue(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]bool{"deleted": removed, "trashed": !removed})
}

// @Summary Restore document from trash
// @Router /api/v1/{domain}/{id}/untrash [post]
func (h *DocumentHandler[T]) Untrash(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	doc, err := h.store.Untrash(stdCtx, h.actor(ctx), pathValue(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, doc)
}

// @Summary Move document through the workflow
// @Router /api/v1/{domain}/{id}/workflow [post]
func (h *DocumentHandler[T]) Workflow(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.WorkflowRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	doc, err := h.store.Transition(stdCtx, h.actor(ctx), pathValue(ctx, "id"), document.TransitionInput{
		Status:             req.Status,
		ScheduledPublishAt: domain.ParseSchedule(req.ScheduledPublishAt),
		ChangeNote:         req.ChangeNote,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, doc)
}

// @Summary Record a manual version
// @Router /api/v1/{domain}/{id}/snapshot [post]
func (h *DocumentHandler[T]) Snapshot(ctx *fasthttp.RequestCtx) {
	var req transport.SnapshotRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.badRequest(ctx, "invalid payload")
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	version, err := h.store.RecordVersion(stdCtx, h.actor(ctx), pathValue(ctx, "id"), req.ChangeNote)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, version)
}

// @Summary Version history, newest first
// @Router /api/v1/{domain}/{id}/versions [get]
func (h *DocumentHandler[T]) Versions(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	versions, err := h.store.Versions(stdCtx, pathValue(ctx, "id"), queryInt(ctx, "limit", 0))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondList(ctx, versions, transport.ListMeta{Count: len(versions)})
}

// @Summary Restore a stored version
// @Router /api/v1/{domain}/{id}/versions/{number}/restore [post]
func (h *DocumentHandler[T]) Restore(ctx *fasthttp.RequestCtx) {
	number, err := strconv.Atoi(pathValue(ctx, "number"))
	if err != nil || number < 1 {
		h.badRequest(ctx, "version number must be a positive integer")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	doc, err := h.store.RestoreVersion(stdCtx, h.actor(ctx), pathValue(ctx, "id"), number)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, doc)
}

// @Summary Clone document as a draft
// @Router /api/v1/{domain}/{id}/clone [post]
func (h *DocumentHandler[T]) Clone(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	doc, err := h.store.Clone(stdCtx, h.actor(ctx), pathValue(ctx, "id"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, doc)
}

// @Summary Save editor input without a version
// @Router /api/v1/{domain}/{id}/autosave [post]
func (h *DocumentHandler[T]) Autosave(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	req, err := transport.DecodeDocument(ctx.PostBody())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	doc, err := h.store.Autosave(stdCtx, h.actor(ctx), pathValue(ctx, "id"), req.Fields)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.AutosaveResponse{SavedAt: doc.Base().UpdatedAt})
}

// @Summary Apply an action to many documents
// @Router /api/v1/bulk/{domain} [post]
func (h *DocumentHandler[T]) Bulk(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.BulkRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}
	actor := h.actor(ctx)
	publishing := strings.EqualFold(strings.TrimSpace(req.Action), document.BulkPublish)
	if publishing && h.Kind().Workflow && !actor.Can(h.Kind().Publish) {
		h.respondError(ctx, stdCtx, domain.ErrForbidden)
		return
	}

	result, err := h.store.Bulk(stdCtx, actor, document.BulkInput{Action: req.Action, IDs: req.IDs})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Live document by natural key
// @Router /api/v1/published/{domain}/{key} [get]
func (h *DocumentHandler[T]) Published(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	doc, err := h.store.Published(stdCtx, pathValue(ctx, "key"))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, doc)
}
