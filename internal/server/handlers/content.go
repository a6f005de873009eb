package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/eventstore"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/htmlsync"
	"git.home.luguber.info/inful/sitekeeper/internal/publish"
	"git.home.luguber.info/inful/sitekeeper/internal/server/responses"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
)

// Site defines the site operations needed by the handlers.
type Site interface {
	Add(ctx context.Context, kind content.Kind, fields map[string]any) (site.MutationResult, error)
	Update(ctx context.Context, kind content.Kind, id int, patch map[string]any) (site.MutationResult, error)
	Delete(ctx context.Context, kind content.Kind, id int) (site.MutationResult, error)
	List(ctx context.Context, kind content.Kind) ([]content.Record, error)
	Get(ctx context.Context, kind content.Kind, id int) (content.Record, error)
	Resync(ctx context.Context, kinds ...content.Kind) ([]htmlsync.Report, error)
	Publish(ctx context.Context, message, branch string) (publish.Result, error)
	Status(ctx context.Context) (site.Status, error)
	History(ctx context.Context, limit int) ([]eventstore.Entry, error)
}

// ContentHandlers serves collection CRUD and resync.
type ContentHandlers struct {
	site         Site
	errorAdapter *errors.HTTPErrorAdapter
}

// NewContentHandlers creates content handlers backed by s.
func NewContentHandlers(s Site, adapter *errors.HTTPErrorAdapter) *ContentHandlers {
	if adapter == nil {
		adapter = errors.NewHTTPErrorAdapter(slog.Default())
	}
	return &ContentHandlers{site: s, errorAdapter: adapter}
}

// HandleList returns a collection in display order.
func (h *ContentHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	seq, err := h.site.List(r.Context(), kind)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.write(w, r, http.StatusOK, seq)
}

// HandleGet returns one record.
func (h *ContentHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	rec, err := h.site.Get(r.Context(), kind, id)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.write(w, r, http.StatusOK, rec)
}

// HandleAdd creates a record from the JSON object in the body.
func (h *ContentHandlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	res, err := h.site.Add(r.Context(), kind, fields)
	h.mutation(w, r, http.StatusCreated, res, err)
}

// HandleUpdate merges the JSON object in the body into a record.
func (h *ContentHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	patch, err := decodeFields(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	res, err := h.site.Update(r.Context(), kind, id, patch)
	h.mutation(w, r, http.StatusOK, res, err)
}

// HandleDelete removes a record.
func (h *ContentHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	kind, id, err := kindAndID(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	res, err := h.site.Delete(r.Context(), kind, id)
	h.mutation(w, r, http.StatusOK, res, err)
}

// HandleSyncAll projects every collection into the document.
func (h *ContentHandlers) HandleSyncAll(w http.ResponseWriter, r *http.Request) {
	h.resync(w, r)
}

// HandleSyncKind projects one collection into the document.
func (h *ContentHandlers) HandleSyncKind(w http.ResponseWriter, r *http.Request) {
	kind, err := pathKind(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.resync(w, r, kind)
}

func (h *ContentHandlers) resync(w http.ResponseWriter, r *http.Request, kinds ...content.Kind) {
	reports, err := h.site.Resync(r.Context(), kinds...)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	resp := responses.SyncResponse{Success: true, Reports: reports}
	for _, rep := range reports {
		if rep.Partial() {
			resp.Partial = true
		}
	}
	h.write(w, r, http.StatusOK, resp)
}

func (h *ContentHandlers) mutation(w http.ResponseWriter, r *http.Request, status int, res site.MutationResult, err error) {
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.write(w, r, status, responses.MutationResponse{
		Success:     true,
		OperationID: res.OperationID,
		Record:      res.Record,
		Sync:        res.Sync,
		Partial:     res.Partial,
		Warnings:    res.Warnings,
		Publish:     res.Publish,
	})
}

func (h *ContentHandlers) write(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSONPretty(w, r, status, v); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

func kindAndID(r *http.Request) (content.Kind, int, error) {
	kind, err := pathKind(r)
	if err != nil {
		return "", 0, err
	}
	id, err := pathID(r)
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}
