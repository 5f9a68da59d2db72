// Package site serves the SOLA web site: content pages from the CMS, the
// dataset page with its server-rendered timeline, a JSON/SVG API and the
// sitemap.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/solaproject/sola/internal/cms"
	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/visualization"
)

// Config holds site configuration.
type Config struct {
	Addr string
	// URL is the public base URL used in the sitemap.
	URL     string
	Locales []string
	// TimelineTicks bounds the layout simulation of rendered timelines.
	TimelineTicks int
	Timeline      visualization.Config
}

// Server is the site's HTTP server.
type Server struct {
	config  Config
	data    *dataset.Service
	content *cms.Store
	imprint *cms.Imprint
	logger  *slog.Logger
	pages   templates
}

// New creates a Server. imprint may be nil; the imprint page then comes
// from the CMS.
func New(config Config, data *dataset.Service, content *cms.Store, imprint *cms.Imprint, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(config.Locales) == 0 {
		config.Locales = i18n.Locales()
	}
	pages, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		config:  config,
		data:    data,
		content: content,
		imprint: imprint,
		logger:  logger,
		pages:   pages,
	}, nil
}

// Handler returns the site's routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)

	mux.HandleFunc("GET /{locale}/{$}", s.handleIndex)
	mux.HandleFunc("GET /{locale}/about", s.handleAbout)
	mux.HandleFunc("GET /{locale}/team", s.handleTeam)
	mux.HandleFunc("GET /{locale}/posts", s.handlePosts)
	mux.HandleFunc("GET /{locale}/posts/{id}", s.handlePost)
	mux.HandleFunc("GET /{locale}/imprint", s.handleImprint)
	mux.HandleFunc("GET /{locale}/dataset", s.handleDataset)

	mux.HandleFunc("GET /{locale}/api/entities", s.handleEntities)
	mux.HandleFunc("GET /{locale}/api/entities/{type}/{id}", s.handleEntity)
	mux.HandleFunc("GET /{locale}/api/entities/{type}/{id}/duration.svg", s.handleDuration)
	mux.HandleFunc("GET /{locale}/api/passages", s.handlePassages)
	mux.HandleFunc("GET /{locale}/api/options", s.handleOptions)
	mux.HandleFunc("GET /{locale}/api/timeline.svg", s.handleTimeline)

	mux.HandleFunc("/", s.handleNotFound)

	return s.requestID(s.accessLog(gzhttp.GzipHandler(mux)))
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("site listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// locale resolves the {locale} path segment, falling back to the default
// locale. Unmatched routes use the first path segment.
func locale(r *http.Request) string {
	raw := r.PathValue("locale")
	if raw == "" {
		raw, _, _ = strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	}
	return i18n.Resolve(raw)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	target := "/" + i18n.Resolve(r.Header.Get("Accept-Language")) + "/"
	http.Redirect(w, r, target, http.StatusFound)
}
