// Package sitemap builds the XML sitemap of the site.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/solaproject/sola/internal/sola"
)

// Namespace is the sitemap protocol namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// StaticPages are the routes listed for every locale. Error pages and the
// imprint are not listed.
var StaticPages = []string{"", "about", "team", "posts", "dataset"}

// URL is one sitemap entry.
type URL struct {
	Loc string `xml:"loc"`
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Builder creates absolute links below a base URL.
type Builder struct {
	base    *url.URL
	locales []string
}

// NewBuilder returns a builder for the site at baseURL.
func NewBuilder(baseURL string, locales []string) (*Builder, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}
	return &Builder{base: base, locales: locales}, nil
}

// Link returns the absolute URL of route with the given query.
func (b *Builder) Link(route string, query url.Values) URL {
	u := *b.base
	u.Path = path.Join("/", b.base.Path, route)
	if strings.HasSuffix(route, "/") && u.Path != "/" {
		u.Path += "/"
	}
	u.RawQuery = query.Encode()
	return URL{Loc: u.String()}
}

// Pages lists the static pages of every locale.
func (b *Builder) Pages(pages []string) []URL {
	var urls []URL
	for _, locale := range b.locales {
		for _, page := range pages {
			route := path.Join(locale, page)
			if page == "" {
				route += "/"
			}
			urls = append(urls, b.Link(route, nil))
		}
	}
	return urls
}

// Posts lists the post pages. postIDs is keyed by locale.
func (b *Builder) Posts(postIDs map[string][]string) []URL {
	var urls []URL
	for _, locale := range b.locales {
		for _, id := range postIDs[locale] {
			urls = append(urls, b.Link(path.Join(locale, "posts", id), nil))
		}
	}
	return urls
}

// Entities lists one dataset page per locale and entity.
func (b *Builder) Entities(refs []sola.EntityRef) []URL {
	var urls []URL
	for _, locale := range b.locales {
		for _, ref := range refs {
			q := url.Values{}
			q.Set("id", strconv.Itoa(ref.ID))
			q.Set("type", ref.Type.String())
			urls = append(urls, b.Link(path.Join(locale, "dataset"), q))
		}
	}
	return urls
}

// Write encodes urls as a sitemap document.
func Write(w io.Writer, urls []URL) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(urlset{Xmlns: Namespace, URLs: urls}); err != nil {
		return err
	}
	return enc.Close()
}
