package dataset

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/parallel"
	"github.com/solaproject/sola/internal/sola"
)

// RelationsByType groups the relations of an entity by the type of the
// related entity, keeping their order.
func RelationsByType(details *sola.EntityDetails) [sola.EntityTypeCount][]sola.Relation {
	var out [sola.EntityTypeCount][]sola.Relation
	if details == nil {
		return out
	}
	for _, relation := range details.Relations {
		t := relation.RelatedEntity.Type
		if !t.Valid() {
			continue
		}
		out[t] = append(out[t], relation)
	}
	return out
}

// BiblePassage is a cited or referenced bible passage with a link to
// an online bible.
type BiblePassage struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// PassageMetadata is the passage-specific part of the detail panel.
type PassageMetadata struct {
	Authors       []sola.Entity  `json:"authors"`
	BiblePassages []BiblePassage `json:"biblePassages"`
}

// PassageMetadata resolves the authors of the publication a passage is
// included in and the bible passages it cites or references. persons is
// the person collection; authors missing from it fall back to the
// relation label.
func (s *Service) PassageMetadata(ctx context.Context, locale string, passage *sola.EntityDetails, persons EntityMap) (*PassageMetadata, error) {
	meta := &PassageMetadata{}
	if passage == nil {
		return meta, nil
	}
	rel := s.config.RelationTypes

	publicationID := 0
	for _, relation := range passage.Relations {
		if relation.RelatedEntity.Type == sola.Publication && relation.RelationType.ID == rel.IsIncludedIn {
			publicationID = relation.RelatedEntity.ID
			break
		}
	}
	if publicationID != 0 {
		publication, err := s.Entity(ctx, locale, Selection{ID: publicationID, Type: sola.Publication})
		if err != nil {
			return nil, fmt.Errorf("fetch publication %d: %w", publicationID, err)
		}
		for _, relation := range publication.Relations {
			if relation.RelatedEntity.Type != sola.Person || relation.RelationType.ID != rel.IsAuthorOf {
				continue
			}
			author, ok := persons[relation.RelatedEntity.ID]
			if !ok {
				author = sola.Entity{ID: relation.RelatedEntity.ID, Type: sola.Person, Name: relation.RelatedEntity.Label}
			}
			meta.Authors = append(meta.Authors, author)
		}
	}

	var bibleRelationIDs []int
	for _, relation := range passage.Relations {
		if relation.RelatedEntity.Type != sola.Publication || relation.RelatedEntity.ID != rel.BiblePublication {
			continue
		}
		if relation.RelationType.ID == rel.HasBibleCitation || relation.RelationType.ID == rel.HasBibleReference {
			bibleRelationIDs = append(bibleRelationIDs, relation.ID)
		}
	}
	if len(bibleRelationIDs) > 0 {
		query := sola.Query{"id__in": bibleRelationIDs}
		relations, err := cache.Fetch(ctx, s.cache, key(OpBiblePassages, locale, query), func(ctx context.Context) ([]sola.PassagePublicationRelation, error) {
			res, err := s.repo.PassagePublicationRelations(ctx, query)
			if err != nil {
				return nil, err
			}
			return res.Results, nil
		})
		if err != nil {
			return nil, fmt.Errorf("fetch bible passages: %w", err)
		}
		meta.BiblePassages = BiblePassages(relations)
	}

	return meta, nil
}

// BiblePassages turns passage-publication relations into labelled
// stepbible.org links. Relations without any bible reference are skipped;
// duplicate labels keep their first link.
func BiblePassages(relations []sola.PassagePublicationRelation) []BiblePassage {
	var out []BiblePassage
	seen := make(map[string]bool)
	for _, r := range relations {
		book, chapter, verse := deref(r.BibleBookRef), deref(r.BibleChapterRef), deref(r.BibleVerseRef)
		if book == "" && chapter == "" && verse == "" {
			continue
		}
		location := joinNonEmpty(":", chapter, verse)
		label := joinNonEmpty(" ", BibleBookName(book), location)
		reference := joinNonEmpty(".", book, location)
		if seen[label] {
			continue
		}
		seen[label] = true

		link := url.URL{
			Scheme:   "https",
			Host:     "stepbible.org",
			Path:     "/",
			RawQuery: url.Values{"q": {"reference=" + reference}}.Encode(),
		}
		out = append(out, BiblePassage{Label: label, URL: link.String()})
	}
	return out
}

// BibleBookName capitalizes a bible book reference the backend delivers
// in lower case ("1 kings" becomes "1 Kings").
func BibleBookName(ref string) string {
	words := strings.Fields(ref)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// TextTypesByLocale lists text type ids per entity type and locale.
type TextTypesByLocale map[sola.EntityType]map[string][]int

// DefaultTextTypes returns the text types shown on the public site. Text
// type 5 (original text) is shown in every locale.
func DefaultTextTypes() TextTypesByLocale {
	return TextTypesByLocale{
		sola.Event:       {"de": {253}, "en": {254}},
		sola.Institution: {"de": {180}, "en": {181}},
		sola.Passage:     {"de": {5, 2, 6}, "en": {5, 3, 61}},
		sola.Person:      {"de": {185}, "en": {186}},
		sola.Place:       {"de": {}, "en": {}},
		sola.Publication: {"de": {178}, "en": {179}},
	}
}

// LocalizedText is an entity text labelled with its localized text type.
type LocalizedText struct {
	sola.TextDetails
	Label string `json:"label"`
}

var localeSuffix = regexp.MustCompile(`\s\((DE|EN)\)$`)

// Texts fetches the texts of an entity that belong to locale, ordered as
// configured for the entity's type, labelled with the localized text type
// name minus its "(DE)"/"(EN)" suffix.
func (s *Service) Texts(ctx context.Context, locale string, entity *sola.EntityDetails) ([]LocalizedText, error) {
	if entity == nil || len(entity.Text) == 0 {
		return nil, nil
	}

	query := s.pageQuery()
	textTypes, err := cache.Fetch(ctx, s.cache, key(OpTextTypes, locale, query), func(ctx context.Context) ([]sola.TextType, error) {
		res, err := s.repo.TextTypes(ctx, locale, query)
		if err != nil {
			return nil, err
		}
		return res.Results, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch text types: %w", err)
	}
	labels := make(map[int]string, len(textTypes))
	for _, tt := range textTypes {
		labels[tt.ID] = localeSuffix.ReplaceAllString(tt.Name, "")
	}

	textQuery := sola.Query{"highlight": true, "inline_annotations": true}
	tasks := make([]parallel.Task[*sola.TextDetails], len(entity.Text))
	for i, ref := range entity.Text {
		tasks[i] = parallel.Task[*sola.TextDetails]{
			Name: "text " + strconv.Itoa(ref.ID),
			Fn: func(ctx context.Context) (*sola.TextDetails, error) {
				k := cache.Key{Operation: OpText, Locale: locale, Params: strconv.Itoa(ref.ID) + "?" + textQuery.Encode()}
				return cache.Fetch(ctx, s.cache, k, func(ctx context.Context) (*sola.TextDetails, error) {
					return s.repo.TextByID(ctx, ref.ID, textQuery)
				})
			},
		}
	}
	results := parallel.Run(ctx, tasks, s.config.Concurrency, nil)
	if err := parallel.Errors(results); err != nil {
		return nil, err
	}

	byKind := make(map[int]*sola.TextDetails, len(results))
	for _, r := range results {
		if r.Value != nil {
			byKind[r.Value.Kind.ID] = r.Value
		}
	}

	var out []LocalizedText
	for _, kind := range s.config.TextTypes[entity.Type][locale] {
		text, ok := byKind[kind]
		if !ok {
			continue
		}
		label, ok := labels[kind]
		if !ok {
			label = text.Kind.Label
		}
		out = append(out, LocalizedText{TextDetails: *text, Label: label})
	}
	return out, nil
}

// Bibliography fetches the references on an entity and its attributes.
func (s *Service) Bibliography(ctx context.Context, locale string, entity sola.EntityRef) ([]sola.BibsonomyReference, error) {
	query := sola.Query{"attribute": "include", "contenttype": entity.Type.String()}
	k := cache.Key{Operation: OpBibliography, Locale: locale, Params: strconv.Itoa(entity.ID) + "?" + query.Encode()}
	return cache.Fetch(ctx, s.cache, k, func(ctx context.Context) ([]sola.BibsonomyReference, error) {
		return s.repo.Bibliography(ctx, entity.ID, query)
	})
}

// Highlight decides which timeline nodes keep full opacity: passages
// matching the active filter, and entities related to the selection.
type Highlight struct {
	passages EntityMap
	related  [sola.EntityTypeCount]map[int]bool
}

// NewHighlight builds the predicate. A nil passages map highlights every
// passage; selected may be nil.
func NewHighlight(passages EntityMap, selected *sola.EntityDetails) Highlight {
	h := Highlight{passages: passages}
	for t, relations := range RelationsByType(selected) {
		h.related[t] = make(map[int]bool, len(relations))
		for _, relation := range relations {
			h.related[t][relation.RelatedEntity.ID] = true
		}
	}
	return h
}

// Contains reports whether the entity is highlighted.
func (h Highlight) Contains(ref sola.EntityRef) bool {
	if !ref.Type.Valid() {
		return false
	}
	if ref.Type == sola.Passage {
		if h.passages == nil {
			return true
		}
		_, ok := h.passages[ref.ID]
		return ok
	}
	return h.related[ref.Type][ref.ID]
}
