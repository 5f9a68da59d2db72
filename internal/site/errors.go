package site

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/solaproject/sola/internal/cms"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/sola"
)

// statusOf maps an error to a response status: missing content and
// missing upstream entities are 404, other upstream failures 502 and
// everything else 500.
func statusOf(err error) int {
	var httpErr *sola.HTTPError
	switch {
	case cms.IsNotFound(err), sola.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &httpErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageOf is the user-facing text for a status.
func messageOf(labels i18n.Labels, status int) string {
	switch status {
	case http.StatusNotFound:
		return labels.NotFound
	case http.StatusBadGateway:
		return labels.UpstreamFailed
	default:
		return labels.UnexpectedErr
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// apiError answers an API request with a JSON error.
func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log(r).Error("api request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: messageOf(i18n.For(locale(r)), status), Status: status})
}

// pageError renders the error page.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log(r).Error("page request failed", "path", r.URL.Path, "error", err)
	}
	s.renderError(w, r, status)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int) {
	lc := locale(r)
	labels := i18n.For(lc)
	s.render(w, r, status, "error", page{
		Title:   messageOf(labels, status),
		Content: errorResponse{Error: messageOf(labels, status), Status: status},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound)
}
