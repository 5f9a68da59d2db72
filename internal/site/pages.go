package site

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/solaproject/sola/internal/cms"
	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/sola"
	"github.com/solaproject/sola/internal/visualization"
)

// Number of posts previewed on the home page.
const homePosts = 3

// DurationWidth is the width of rendered duration timelines.
const DurationWidth = 600

type indexView struct {
	Page  cms.Page
	Posts []cms.PostPreview
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	lc := locale(r)
	p, err := s.content.Page("index", lc)
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	posts, err := s.content.PostsOverview(lc)
	if err != nil && !cms.IsNotFound(err) {
		s.log(r).Warn("list posts", "locale", lc, "error", err)
	}
	if len(posts) > homePosts {
		posts = posts[:homePosts]
	}
	s.render(w, r, http.StatusOK, "index", page{Title: p.Title(), Content: indexView{Page: p, Posts: posts}})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	p, err := s.content.Page("about", locale(r))
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "page", page{Title: p.Title(), Content: p})
}

type teamView struct {
	Current []cms.TeamMember
	Former  []cms.TeamMember
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	members, err := s.content.TeamMembers(locale(r))
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	var view teamView
	for _, m := range members {
		if m.Group == cms.GroupFormer {
			view.Former = append(view.Former, m)
		} else {
			view.Current = append(view.Current, m)
		}
	}
	s.render(w, r, http.StatusOK, "team", page{Title: i18n.For(locale(r)).Team, Content: view})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.content.PostsOverview(locale(r))
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "posts", page{Title: i18n.For(locale(r)).Posts, Content: posts})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || strings.HasPrefix(id, ".") || strings.ContainsAny(id, `/\`) {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	post, err := s.content.Post(id, locale(r))
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "post", page{Title: post.Metadata.Title, Content: post})
}

func (s *Server) handleImprint(w http.ResponseWriter, r *http.Request) {
	lc := locale(r)
	title := i18n.For(lc).Imprint
	if s.imprint.Enabled() {
		html, err := s.imprint.Fetch(r.Context(), lc)
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, "page", page{Title: title, Content: cms.Page{ID: "imprint", HTML: html}})
		return
	}
	p, err := s.content.Page("imprint", lc)
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "page", page{Title: title, Content: p})
}

type relationGroup struct {
	Type      sola.EntityType `json:"type"`
	Relations []sola.Relation `json:"relations"`
}

// entityView is the detail panel of the selected entity.
type entityView struct {
	Details      *sola.EntityDetails       `json:"entity"`
	Relations    []relationGroup           `json:"relations"`
	Passage      *dataset.PassageMetadata  `json:"passage,omitempty"`
	Texts        []dataset.LocalizedText   `json:"texts"`
	Bibliography []sola.BibsonomyReference `json:"bibliography"`
	Duration     template.HTML             `json:"-"`
}

type datasetView struct {
	Filter    dataset.Filter
	Term      string
	Selection *dataset.Selection

	Authors      []sola.Entity
	Publications []sola.Entity
	TopicRows    []optionRow
	TypeRows     []optionRow
	OptionsError string

	Timeline      template.HTML
	TimelineError string
	Partial       bool

	Entity      *entityView
	EntityError string
}

// Selected reports whether id is among ids, for selected options.
func (v datasetView) Selected(ids []int, id int) bool {
	return slices.Contains(ids, id)
}

// optionRow is one line of a flattened option tree. Group rows are
// section headings without a value of their own.
type optionRow struct {
	ID      int
	Name    string
	Depth   int
	Group   bool
	Checked bool
}

func optionRows(roots []*dataset.OptionNode, checked []int) []optionRow {
	var rows []optionRow
	dataset.Walk(roots, func(n *dataset.OptionNode, depth int) {
		rows = append(rows, optionRow{
			ID:      n.ID,
			Name:    n.Item.Name,
			Depth:   depth,
			Group:   n.ID < 0,
			Checked: slices.Contains(checked, n.ID),
		})
	})
	return rows
}

// handleDataset renders the dataset page. The filter options, the
// timeline and the detail panel load concurrently and fail on their own.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lc := locale(r)
	labels := i18n.For(lc)
	query := r.URL.Query()

	view := datasetView{
		Filter: dataset.ParseFilter(query),
		Term:   strings.TrimSpace(query.Get("q")),
	}
	if sel, ok := dataset.ParseSelection(query); ok {
		view.Selection = &sel
	}

	var g errgroup.Group
	g.Go(func() error {
		opts, err := s.data.FilterOptions(ctx, lc)
		if err != nil {
			view.OptionsError = s.panelError(r, labels, "filter options", err)
			return nil
		}
		view.Authors = dataset.SortByName(opts.Authors, lc)
		view.Publications = dataset.SortByName(opts.Publications, lc)
		tree := opts.Tree(labels.Other)
		view.TopicRows = optionRows(tree.Topics, view.Filter.Topics)
		view.TypeRows = optionRows(tree.Types, view.Filter.Types)
		return nil
	})
	g.Go(func() error {
		tv, err := BuildTimeline(ctx, s.data, s.config.Timeline, s.log(r), TimelineRequest{
			Locale:    lc,
			Filter:    view.Filter,
			Term:      view.Term,
			Selection: view.Selection,
			Ticks:     s.config.TimelineTicks,
		})
		if err != nil {
			view.TimelineError = s.panelError(r, labels, "timeline", err)
			return nil
		}
		var buf bytes.Buffer
		if err := tv.Render(&buf); err != nil {
			view.TimelineError = s.panelError(r, labels, "timeline", err)
			return nil
		}
		view.Timeline = template.HTML(buf.String())
		view.Partial = tv.Partial
		return nil
	})
	if view.Selection != nil {
		g.Go(func() error {
			ev, err := s.entityPanel(ctx, lc, *view.Selection)
			if err != nil {
				view.EntityError = s.panelError(r, labels, "entity", err)
				return nil
			}
			view.Entity = ev
			return nil
		})
	}
	g.Wait()

	s.render(w, r, http.StatusOK, "dataset", page{Title: labels.Dataset, Content: view})
}

// panelError logs a failed panel and returns its message.
func (s *Server) panelError(r *http.Request, labels i18n.Labels, panel string, err error) string {
	status := statusOf(err)
	s.log(r).Warn("panel failed", "panel", panel, "status", status, "error", err)
	return messageOf(labels, status)
}

// entityPanel loads everything the detail panel shows for sel.
func (s *Server) entityPanel(ctx context.Context, lc string, sel dataset.Selection) (*entityView, error) {
	details, err := s.data.Entity(ctx, lc, sel)
	if err != nil {
		return nil, err
	}
	view := &entityView{Details: details}

	for t, relations := range dataset.RelationsByType(details) {
		if len(relations) > 0 {
			view.Relations = append(view.Relations, relationGroup{Type: sola.EntityType(t), Relations: relations})
		}
	}

	if sel.Type == sola.Passage {
		persons, err := s.data.EntitiesOfType(ctx, sola.Person, lc)
		if err != nil {
			return nil, err
		}
		view.Passage, err = s.data.PassageMetadata(ctx, lc, details, persons)
		if err != nil {
			return nil, err
		}
	}

	view.Texts, err = s.data.Texts(ctx, lc, details)
	if err != nil {
		return nil, err
	}
	view.Bibliography, err = s.data.Bibliography(ctx, lc, sel.Ref())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := visualization.RenderDuration(&buf, details.Entity, DurationWidth, s.config.Timeline, lc); err != nil {
		return nil, err
	}
	view.Duration = template.HTML(buf.String())
	return view, nil
}
