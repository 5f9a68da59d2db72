package site

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/sola"
	"github.com/solaproject/sola/internal/visualization"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index", "page", "team", "posts", "post", "dataset", "error"}

// templates holds one template set per page, each combined with the
// layout.
type templates map[string]*template.Template

var funcs = template.FuncMap{
	"entityType": func(labels i18n.Labels, t sola.EntityType) string {
		return labels.EntityType(t, false)
	},
	"entityTypes": func(labels i18n.Labels, t sola.EntityType) string {
		return labels.EntityType(t, true)
	},
	"date": func(locale, s string) string {
		t, err := visualization.ParseDate(s)
		if err != nil {
			return s
		}
		return i18n.FormatDate(locale, t)
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"query": func(values url.Values) template.URL {
		if len(values) == 0 {
			return ""
		}
		return template.URL("?" + values.Encode())
	},
	"trustHTML": func(s string) template.HTML {
		return template.HTML(s)
	},
	"join": strings.Join,
}

func parseTemplates() (templates, error) {
	out := make(templates, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

// page is the data passed to every template.
type page struct {
	Locale  string
	Locales []string
	Labels  i18n.Labels
	// Path is the request path below the locale, for language links.
	Path    string
	Query   string
	Title   string
	Content any
}

// LocaleURL is the current page in another locale.
func (p page) LocaleURL(locale string) template.URL {
	u := url.URL{Path: "/" + locale + p.Path, RawQuery: p.Query}
	return template.URL(u.String())
}

// render executes the named page into a buffer so that template errors
// still produce a clean error response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	lc := locale(r)
	data.Locale = lc
	data.Locales = s.config.Locales
	data.Labels = i18n.For(lc)
	data.Query = r.URL.RawQuery
	data.Path = "/"
	if raw := r.PathValue("locale"); raw != "" {
		if p := strings.TrimPrefix(r.URL.Path, "/"+raw); p != "" {
			data.Path = p
		}
	}

	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log(r).Error("render template", "template", name, "error", err)
		http.Error(w, data.Labels.UnexpectedErr, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
