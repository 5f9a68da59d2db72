// Package cms reads the site's editorial content from a directory of
// markdown files with YAML frontmatter and YAML data files.
//
// Layout:
//
//	pages/{locale}/{id}.md
//	posts/{locale}/{id}.md
//	data/team/{locale}/{id}.yml
package cms

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// ExcerptLength is the maximum length of a generated post abstract.
const ExcerptLength = 280

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

// Raw HTML in markdown is not rendered.
func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// Store reads content from Dir.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Page is a rendered content page.
type Page struct {
	ID       string         `json:"id"`
	HTML     string         `json:"html"`
	Metadata map[string]any `json:"metadata"`
}

// Title returns the page's frontmatter title, if any.
func (p Page) Title() string {
	s, _ := p.Metadata["title"].(string)
	return s
}

// Attachment is a downloadable file linked from a post.
type Attachment struct {
	Label string `yaml:"label" json:"label"`
	File  string `yaml:"file" json:"file"`
}

// GalleryItem is an image shown with a post.
type GalleryItem struct {
	Alt   string `yaml:"alt" json:"alt"`
	Image string `yaml:"image" json:"image"`
}

// PostMetadata is the frontmatter of a post.
type PostMetadata struct {
	Title       string        `yaml:"title" json:"title"`
	ShortTitle  string        `yaml:"shortTitle" json:"shortTitle,omitempty"`
	Date        string        `yaml:"date" json:"date"`
	Abstract    string        `yaml:"abstract" json:"abstract,omitempty"`
	Attachments []Attachment  `yaml:"attachments" json:"attachments,omitempty"`
	Gallery     []GalleryItem `yaml:"gallery" json:"gallery,omitempty"`
}

// Post is a rendered post.
type Post struct {
	ID       string       `json:"id"`
	HTML     string       `json:"html"`
	Metadata PostMetadata `json:"metadata"`
}

// PostPreview is a post as listed on the overview page.
type PostPreview struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Abstract string `json:"abstract"`
}

// Group is a team member's affiliation.
type Group string

const (
	GroupACDH    Group = "acdh"
	GroupCurrent Group = "current"
	GroupFormer  Group = "former"
)

// TeamMember is one person on the team page.
type TeamMember struct {
	ID          string `yaml:"-" json:"id"`
	FirstName   string `yaml:"firstName" json:"firstName"`
	LastName    string `yaml:"lastName" json:"lastName"`
	Boss        bool   `yaml:"boss" json:"boss,omitempty"`
	Group       Group  `yaml:"group" json:"group"`
	Title       string `yaml:"title" json:"title,omitempty"`
	Affiliation string `yaml:"affiliation" json:"affiliation,omitempty"`
	Image       string `yaml:"image" json:"image,omitempty"`
	Email       string `yaml:"email" json:"email,omitempty"`
	Phone       string `yaml:"phone" json:"phone,omitempty"`
	Website     string `yaml:"website" json:"website,omitempty"`
	Biography   string `yaml:"biography" json:"biography,omitempty"`
}

// Page reads pages/{locale}/{id}.md.
func (s *Store) Page(id, locale string) (Page, error) {
	var meta map[string]any
	html, err := s.render(s.path("pages", locale, id+".md"), &meta)
	if err != nil {
		return Page{}, fmt.Errorf("page %s/%s: %w", locale, id, err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return Page{ID: id, HTML: html, Metadata: meta}, nil
}

// Post reads posts/{locale}/{id}.md.
func (s *Store) Post(id, locale string) (Post, error) {
	var meta PostMetadata
	html, err := s.render(s.path("posts", locale, id+".md"), &meta)
	if err != nil {
		return Post{}, fmt.Errorf("post %s/%s: %w", locale, id, err)
	}
	return Post{ID: id, HTML: html, Metadata: meta}, nil
}

// PostIDs lists the ids of all posts in locale, sorted.
func (s *Store) PostIDs(locale string) ([]string, error) {
	return s.list(s.path("posts", locale), ".md")
}

// PostsOverview returns previews of all posts in locale, newest first. A
// post without an abstract gets a plain-text excerpt of its body.
func (s *Store) PostsOverview(locale string) ([]PostPreview, error) {
	ids, err := s.PostIDs(locale)
	if err != nil {
		return nil, err
	}

	previews := make([]PostPreview, 0, len(ids))
	for _, id := range ids {
		data, err := os.ReadFile(s.path("posts", locale, id+".md"))
		if err != nil {
			return nil, fmt.Errorf("post %s/%s: %w", locale, id, err)
		}
		var meta PostMetadata
		body, err := splitFrontmatter(data, &meta)
		if err != nil {
			return nil, fmt.Errorf("post %s/%s: %w", locale, id, err)
		}

		title := meta.Title
		if meta.ShortTitle != "" {
			title = meta.ShortTitle
		}
		abstract := meta.Abstract
		if abstract == "" {
			abstract = Excerpt(body, ExcerptLength)
		}
		previews = append(previews, PostPreview{ID: id, Title: title, Date: meta.Date, Abstract: abstract})
	}

	sort.SliceStable(previews, func(i, j int) bool {
		return previews[i].Date > previews[j].Date
	})
	return previews, nil
}

// TeamMembers reads data/team/{locale}/*.yml, sorted by last name.
func (s *Store) TeamMembers(locale string) ([]TeamMember, error) {
	dir := s.path("data", "team", locale)
	ids, err := s.list(dir, ".yml")
	if err != nil {
		return nil, err
	}

	members := make([]TeamMember, 0, len(ids))
	for _, id := range ids {
		data, err := os.ReadFile(filepath.Join(dir, id+".yml"))
		if err != nil {
			return nil, err
		}
		var m TeamMember
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("team member %s/%s: %w", locale, id, err)
		}
		m.ID = id
		members = append(members, m)
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].LastName < members[j].LastName
	})
	return members, nil
}

// IsNotFound reports whether err means the requested content does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func (s *Store) path(elem ...string) string {
	return filepath.Join(append([]string{s.Dir}, elem...)...)
}

func (s *Store) list(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) render(path string, meta any) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	body, err := splitFrontmatter(data, meta)
	if err != nil {
		return "", err
	}
	return Render(body)
}

// Render converts markdown to HTML.
func Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := getMarkdown().Convert(source, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var fence = []byte("---")

// splitFrontmatter decodes a leading "---" delimited YAML block into meta
// and returns the remaining markdown.
func splitFrontmatter(data []byte, meta any) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(data, fence) {
		return data, nil
	}
	rest := data[len(fence):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		return data, nil
	}
	rest = rest[nl+1:]

	var block []byte
	for len(rest) > 0 {
		line := rest
		next := len(rest)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, next = rest[:i], i+1
		}
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), fence) {
			if err := yaml.Unmarshal(block, meta); err != nil {
				return nil, fmt.Errorf("frontmatter: %w", err)
			}
			return rest[next:], nil
		}
		block = append(block, rest[:next]...)
		rest = rest[next:]
	}
	return nil, errors.New("frontmatter: missing closing ---")
}
