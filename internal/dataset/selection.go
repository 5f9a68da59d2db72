package dataset

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/sola"
)

// Selection identifies the entity shown in the detail panel.
type Selection struct {
	ID   int             `json:"id"`
	Type sola.EntityType `json:"type"`
}

// Ref returns the selection as an entity reference.
func (s Selection) Ref() sola.EntityRef {
	return sola.EntityRef{ID: s.ID, Type: s.Type}
}

// Values encodes the selection as the id and type query parameters.
func (s Selection) Values() url.Values {
	return url.Values{
		"id":   {strconv.Itoa(s.ID)},
		"type": {s.Type.String()},
	}
}

// ParseSelection reads id and type from URL query parameters. It fails
// unless id is a positive integer and type names one of the entity types,
// in any letter case.
func ParseSelection(values url.Values) (Selection, bool) {
	rawID := strings.TrimSpace(values.Get("id"))
	if rawID == "" {
		return Selection{}, false
	}
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		return Selection{}, false
	}
	rawType := values.Get("type")
	if strings.TrimSpace(rawType) == "" {
		return Selection{}, false
	}
	t, err := sola.ParseEntityType(rawType)
	if err != nil {
		return Selection{}, false
	}
	return Selection{ID: id, Type: t}, true
}

// Entity fetches one entity with its relations.
func (s *Service) Entity(ctx context.Context, locale string, sel Selection) (*sola.EntityDetails, error) {
	k := cache.Key{Operation: OpEntity, Locale: locale, Params: sel.Values().Encode()}
	return cache.Fetch(ctx, s.cache, k, func(ctx context.Context) (*sola.EntityDetails, error) {
		return s.repo.EntityByID(ctx, sel.Type, sel.ID, locale)
	})
}
