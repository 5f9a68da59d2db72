// Package dataset aggregates SOLA entities and vocabularies into the
// collections, filter options and filtered passage sets the dataset page
// and CLI work with. Every remote call goes through the query cache.
package dataset

import (
	"context"
	"log/slog"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/sola"
)

// Repository is the part of the SOLA API client the service uses.
type Repository interface {
	Entities(ctx context.Context, locale string, query sola.Query) (*sola.Results[sola.Entity], error)
	ListEntities(ctx context.Context, entityType sola.EntityType, locale string, query sola.Query) (*sola.Results[sola.Entity], error)
	EntityByID(ctx context.Context, entityType sola.EntityType, id int, locale string) (*sola.EntityDetails, error)
	PassageTopics(ctx context.Context, locale string, query sola.Query) (*sola.Results[sola.Vocabulary], error)
	PassageTypes(ctx context.Context, locale string, query sola.Query) (*sola.Results[sola.Vocabulary], error)
	TextTypes(ctx context.Context, locale string, query sola.Query) (*sola.Results[sola.TextType], error)
	TextByID(ctx context.Context, id int, query sola.Query) (*sola.TextDetails, error)
	PassagePublicationRelations(ctx context.Context, query sola.Query) (*sola.Results[sola.PassagePublicationRelation], error)
	Bibliography(ctx context.Context, id int, query sola.Query) ([]sola.BibsonomyReference, error)
}

// RelationTypes holds the backend ids of the relation types the dataset
// layer follows.
type RelationTypes struct {
	IsIncludedIn      int `toml:"is_included_in"`
	IsAuthorOf        int `toml:"is_author_of"`
	HasBibleCitation  int `toml:"has_bible_citation"`
	HasBibleReference int `toml:"has_bible_reference"`
	// BiblePublication is the id of the publication entity "Bible".
	BiblePublication int `toml:"bible_publication"`
}

// DefaultRelationTypes returns the ids used by the public backend.
func DefaultRelationTypes() RelationTypes {
	return RelationTypes{
		IsIncludedIn:      189,
		IsAuthorOf:        187,
		HasBibleCitation:  205,
		HasBibleReference: 204,
		BiblePublication:  248,
	}
}

// Config tunes the service.
type Config struct {
	// PageLimit is sent as limit on list requests. Default: sola.DefaultPageLimit.
	PageLimit int

	// AuthorsMode selects how an authors filter is expressed.
	AuthorsMode AuthorsMode

	RelationTypes RelationTypes

	// TextTypes lists, per entity type and locale, the text type ids to show
	// and in which order. Default: DefaultTextTypes().
	TextTypes TextTypesByLocale

	// Concurrency bounds the per-type fan-out. Default: one per entity type.
	Concurrency int
}

// DefaultConfig returns the configuration matching the public backend.
func DefaultConfig() Config {
	return Config{
		PageLimit:     sola.DefaultPageLimit,
		AuthorsMode:   AuthorsByPersonSet,
		RelationTypes: DefaultRelationTypes(),
		TextTypes:     DefaultTextTypes(),
		Concurrency:   sola.EntityTypeCount,
	}
}

// Service answers dataset queries against a Repository through a cache.
type Service struct {
	repo   Repository
	cache  *cache.Cache
	logger *slog.Logger
	config Config
}

// New creates a Service. A nil cache disables caching; a nil logger
// discards log output. Zero config fields take their defaults.
func New(repo Repository, c *cache.Cache, logger *slog.Logger, config Config) *Service {
	defaults := DefaultConfig()
	if config.PageLimit <= 0 {
		config.PageLimit = defaults.PageLimit
	}
	if config.RelationTypes == (RelationTypes{}) {
		config.RelationTypes = defaults.RelationTypes
	}
	if config.TextTypes == nil {
		config.TextTypes = defaults.TextTypes
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, cache: c, logger: logger, config: config}
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.config
}

// pageQuery is the base query fetching a whole collection in one page.
func (s *Service) pageQuery() sola.Query {
	return sola.Query{"limit": s.config.PageLimit}
}

func key(operation, locale string, query sola.Query) cache.Key {
	return cache.Key{Operation: operation, Locale: locale, Params: query.Encode()}
}

// Cache operation names. Invalidating an operation drops its entries for
// every locale and parameter set.
const (
	OpEntities      = "entities"
	OpPassages      = "passages"
	OpSearch        = "search"
	OpEntity        = "entity"
	OpTopics        = "topics"
	OpTypes         = "types"
	OpTextTypes     = "texttypes"
	OpText          = "text"
	OpBiblePassages = "bible"
	OpBibliography  = "bibliography"
)

// Operations lists every cache operation name.
func Operations() []string {
	return []string{
		OpEntities, OpPassages, OpSearch, OpEntity, OpTopics,
		OpTypes, OpTextTypes, OpText, OpBiblePassages, OpBibliography,
	}
}
