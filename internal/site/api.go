package site

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/solaproject/sola/internal/cms"
	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/sitemap"
	"github.com/solaproject/sola/internal/sola"
	"github.com/solaproject/sola/internal/visualization"
)

type collectionResponse struct {
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Count    int           `json:"count"`
	Entities []sola.Entity `json:"entities"`
}

// handleEntities returns every collection with its own load state. It
// fails only when no collection loaded.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	lc := locale(r)
	collections, err := s.data.Entities(r.Context(), lc)
	if err != nil && !anyLoaded(collections) {
		s.apiError(w, r, err)
		return
	}

	labels := i18n.For(lc)
	resp := make(map[string]collectionResponse, sola.EntityTypeCount)
	for _, t := range sola.EntityTypes() {
		state := collections.States[t]
		c := collectionResponse{Status: state.Status.String(), Entities: collections.Of(t).Sorted()}
		if state.Err != nil {
			c.Error = messageOf(labels, statusOf(state.Err))
		}
		c.Count = len(c.Entities)
		resp[t.String()] = c
	}
	writeJSON(w, http.StatusOK, resp)
}

// pathSelection reads the {type} and {id} path segments.
func pathSelection(r *http.Request) (dataset.Selection, bool) {
	return dataset.ParseSelection(url.Values{
		"id":   {r.PathValue("id")},
		"type": {r.PathValue("type")},
	})
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	sel, ok := pathSelection(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: i18n.For(locale(r)).NotFound, Status: http.StatusNotFound})
		return
	}
	view, err := s.entityPanel(r.Context(), locale(r), sel)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleDuration renders the duration timeline of one entity. Entities
// without a primary date have no timeline and answer 204.
func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	sel, ok := pathSelection(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: i18n.For(locale(r)).NotFound, Status: http.StatusNotFound})
		return
	}
	lc := locale(r)
	details, err := s.data.Entity(r.Context(), lc, sel)
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	width := floatParam(r, "width", DurationWidth)
	var buf bytes.Buffer
	if err := visualization.RenderDuration(&buf, details.Entity, width, s.config.Timeline, lc); err != nil {
		s.apiError(w, r, err)
		return
	}
	if buf.Len() == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	buf.WriteTo(w)
}

type passagesResponse struct {
	// Constrained is false when neither filter nor search was given; all
	// passages match then.
	Constrained bool          `json:"constrained"`
	Count       int           `json:"count"`
	Passages    []sola.Entity `json:"passages"`
}

func (s *Server) handlePassages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	passages, err := s.data.FilteredPassages(r.Context(), locale(r), dataset.ParseFilter(query), query.Get("q"))
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	resp := passagesResponse{Constrained: passages != nil, Passages: passages.Sorted()}
	resp.Count = len(resp.Passages)
	writeJSON(w, http.StatusOK, resp)
}

type optionJSON struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Synthetic bool         `json:"synthetic,omitempty"`
	Children  []optionJSON `json:"children,omitempty"`
}

func optionsJSON(nodes []*dataset.OptionNode) []optionJSON {
	out := make([]optionJSON, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, optionJSON{
			ID:        n.ID,
			Name:      n.Item.Name,
			Synthetic: n.Synthetic,
			Children:  optionsJSON(n.Children),
		})
	}
	return out
}

type optionsResponse struct {
	Authors      []sola.Entity `json:"authors"`
	Publications []sola.Entity `json:"publications"`
	Topics       []optionJSON  `json:"topics"`
	Types        []optionJSON  `json:"types"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	lc := locale(r)
	opts, err := s.data.FilterOptions(r.Context(), lc)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	tree := opts.Tree(i18n.For(lc).Other)
	writeJSON(w, http.StatusOK, optionsResponse{
		Authors:      dataset.SortByName(opts.Authors, lc),
		Publications: dataset.SortByName(opts.Publications, lc),
		Topics:       optionsJSON(tree.Topics),
		Types:        optionsJSON(tree.Types),
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := TimelineRequest{
		Locale: locale(r),
		Filter: dataset.ParseFilter(query),
		Term:   query.Get("q"),
		Width:  floatParam(r, "width", DefaultTimelineWidth),
		Height: floatParam(r, "height", DefaultTimelineHeight),
		Ticks:  s.config.TimelineTicks,
	}
	if sel, ok := dataset.ParseSelection(query); ok {
		req.Selection = &sel
	}

	view, err := BuildTimeline(r.Context(), s.data, s.config.Timeline, s.log(r), req)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := view.Render(&buf); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	buf.WriteTo(w)
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.WriteSitemap(r.Context(), &buf); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	buf.WriteTo(w)
}

// WriteSitemap writes the sitemap: the static pages, the posts and one
// dataset page per entity in every locale.
func (s *Server) WriteSitemap(ctx context.Context, w io.Writer) error {
	builder, err := sitemap.NewBuilder(s.config.URL, s.config.Locales)
	if err != nil {
		return err
	}
	urls := builder.Pages(sitemap.StaticPages)

	posts := make(map[string][]string, len(s.config.Locales))
	for _, lc := range s.config.Locales {
		ids, err := s.content.PostIDs(lc)
		if err != nil && !cms.IsNotFound(err) {
			return err
		}
		posts[lc] = ids
	}
	urls = append(urls, builder.Posts(posts)...)

	// Ids and types are the same in every locale.
	collections, err := s.data.Entities(ctx, i18n.DefaultLocale)
	if err != nil {
		return fmt.Errorf("sitemap entities: %w", err)
	}
	var refs []sola.EntityRef
	for _, t := range sola.EntityTypes() {
		for _, e := range collections.Of(t).Sorted() {
			refs = append(refs, e.Ref())
		}
	}
	urls = append(urls, builder.Entities(refs)...)

	return sitemap.Write(w, urls)
}

// maxCanvas bounds requested SVG dimensions.
const maxCanvas = 4096

// floatParam reads a positive number up to maxCanvas from the query, or
// returns def.
func floatParam(r *http.Request, name string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get(name)), 64)
	if err != nil || v <= 0 || v > maxCanvas {
		return def
	}
	return v
}
