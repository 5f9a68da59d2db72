package dataset

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/sola"
)

// Filter is the structured passage filter. Empty fields are inactive.
type Filter struct {
	Name         string `json:"name,omitempty"`
	Authors      []int  `json:"authors,omitempty"`
	Publications []int  `json:"publications,omitempty"`
	Topics       []int  `json:"topics,omitempty"`
	Types        []int  `json:"types,omitempty"`
}

// Active reports whether any field constrains the result.
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Name) != "" ||
		len(f.Authors) > 0 || len(f.Publications) > 0 ||
		len(f.Topics) > 0 || len(f.Types) > 0
}

// Merge returns a copy of f with the non-empty fields of other replacing
// its own, the way successive filter edits accumulate.
func (f Filter) Merge(other Filter) Filter {
	out := f
	if other.Name != "" {
		out.Name = other.Name
	}
	if other.Authors != nil {
		out.Authors = slices.Clone(other.Authors)
	}
	if other.Publications != nil {
		out.Publications = slices.Clone(other.Publications)
	}
	if other.Topics != nil {
		out.Topics = slices.Clone(other.Topics)
	}
	if other.Types != nil {
		out.Types = slices.Clone(other.Types)
	}
	return out
}

// Values encodes the filter as URL query parameters, id lists
// comma-joined.
func (f Filter) Values() url.Values {
	values := url.Values{}
	if f.Name != "" {
		values.Set("name", f.Name)
	}
	setIDs(values, "authors", f.Authors)
	setIDs(values, "publications", f.Publications)
	setIDs(values, "topics", f.Topics)
	setIDs(values, "types", f.Types)
	return values
}

func setIDs(values url.Values, key string, ids []int) {
	if len(ids) == 0 {
		return
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	values.Set(key, strings.Join(parts, ","))
}

// ParseFilter reads a filter from URL query parameters. Id lists may be
// comma-joined, repeated, or both; values that are not integers are
// ignored.
func ParseFilter(values url.Values) Filter {
	return Filter{
		Name:         strings.TrimSpace(values.Get("name")),
		Authors:      parseIDs(values["authors"]),
		Publications: parseIDs(values["publications"]),
		Topics:       parseIDs(values["topics"]),
		Types:        parseIDs(values["types"]),
	}
}

func parseIDs(raw []string) []int {
	var ids []int
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// AuthorsMode selects how an authors filter is translated into backend
// lookups. Both forms have existed in the backend's history.
type AuthorsMode int

const (
	// AuthorsByPersonSet filters on publication_set__person_set__id__in.
	AuthorsByPersonSet AuthorsMode = iota
	// AuthorsByRelationType additionally restricts the person relation to
	// the "is author of" relation type.
	AuthorsByRelationType
)

func (m AuthorsMode) String() string {
	if m == AuthorsByRelationType {
		return "relation-type"
	}
	return "person-set"
}

// ParseAuthorsMode parses "person-set" or "relation-type".
func ParseAuthorsMode(s string) (AuthorsMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "person-set", "person_set":
		return AuthorsByPersonSet, nil
	case "relation-type", "relation_type":
		return AuthorsByRelationType, nil
	}
	return 0, fmt.Errorf("unknown authors mode %q (use person-set or relation-type)", s)
}

// PassageQuery translates a filter into passage list parameters. The
// result is sanitized: inactive fields are absent, not empty.
func PassageQuery(f Filter, mode AuthorsMode, relations RelationTypes) sola.Query {
	query := sola.Query{
		"name__icontains":         strings.TrimSpace(f.Name),
		"kind__id__in":            f.Types,
		"topic__id__in":           f.Topics,
		"publication_set__id__in": f.Publications,
	}
	if len(f.Authors) > 0 {
		query["publication_set__person_set__id__in"] = f.Authors
		if mode == AuthorsByRelationType {
			query["publication_set__person_relationtype_set__id"] = relations.IsAuthorOf
		}
		query["publication_relationtype_set__id"] = relations.IsIncludedIn
	}
	return sola.Sanitize(query)
}

// SearchQuery is the free-text search query for term.
func SearchQuery(term string) sola.Query {
	return sola.Sanitize(sola.Query{"search": strings.TrimSpace(term)})
}

// Merge intersects a filter result with a search result. A nil side
// passes the other through unchanged; otherwise only ids present in both
// are kept, with the entry from search. Both nil yields nil, meaning
// "no constraint".
func Merge(filtered, search EntityMap) EntityMap {
	if filtered == nil {
		return search
	}
	if search == nil {
		return filtered
	}
	out := make(EntityMap)
	for id, entity := range search {
		if _, ok := filtered[id]; ok {
			out[id] = entity
		}
	}
	return out
}

// FilteredPassages returns the passages matching filter and search term.
// The structured query runs only when the filter is active, the search
// only when term is not blank. A nil map means nothing constrains the
// passages.
func (s *Service) FilteredPassages(ctx context.Context, locale string, f Filter, term string) (EntityMap, error) {
	var filtered, searched EntityMap

	if f.Active() {
		query := s.pageQuery().With(PassageQuery(f, s.config.AuthorsMode, s.config.RelationTypes))
		entities, err := cache.Fetch(ctx, s.cache, key(OpPassages, locale, query), func(ctx context.Context) ([]sola.Entity, error) {
			res, err := s.repo.ListEntities(ctx, sola.Passage, locale, query)
			if err != nil {
				return nil, err
			}
			return res.Results, nil
		})
		if err != nil {
			return nil, fmt.Errorf("filter passages: %w", err)
		}
		filtered = keyByID(entities)
	}

	if strings.TrimSpace(term) != "" {
		query := s.pageQuery().With(SearchQuery(term))
		entities, err := cache.Fetch(ctx, s.cache, key(OpSearch, locale, query), func(ctx context.Context) ([]sola.Entity, error) {
			res, err := s.repo.Entities(ctx, locale, query)
			if err != nil {
				return nil, err
			}
			return res.Results, nil
		})
		if err != nil {
			return nil, fmt.Errorf("search passages: %w", err)
		}
		searched = GroupByType(entities).Of(sola.Passage)
	}

	return Merge(filtered, searched), nil
}
