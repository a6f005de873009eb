package handlers

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/server/responses"
)

// PushRequest is the body of POST /git/push. Empty fields use the configured defaults.
type PushRequest struct {
	Message string `json:"message"`
	Branch  string `json:"branch"`
}

// GitHandlers serves publishing and working tree status.
type GitHandlers struct {
	site         Site
	errorAdapter *errors.HTTPErrorAdapter
}

// NewGitHandlers creates git handlers backed by s.
func NewGitHandlers(s Site, adapter *errors.HTTPErrorAdapter) *GitHandlers {
	if adapter == nil {
		adapter = errors.NewHTTPErrorAdapter(slog.Default())
	}
	return &GitHandlers{site: s, errorAdapter: adapter}
}

// HandlePush publishes pending changes.
func (h *GitHandlers) HandlePush(w http.ResponseWriter, r *http.Request) {
	var req PushRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	res, err := h.site.Publish(r.Context(), req.Message, req.Branch)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	resp := responses.PublishResponse{Success: true, Message: res.Summary(), Result: res}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}

// HandleStatus reports the working tree status.
func (h *GitHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.site.Status(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if st.GitError != "" {
		h.errorAdapter.WriteErrorResponse(w, r, errors.GitError(st.GitError).Build())
		return
	}
	if st.Git == "" {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ConfigError("publishing is not configured").Build())
		return
	}
	if err := writeJSON(w, http.StatusOK, responses.GitStatusResponse{Success: true, Status: st.Git}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write response").Build())
	}
}
