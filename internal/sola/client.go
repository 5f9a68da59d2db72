package sola

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public SOLA backend.
	DefaultBaseURL = "https://sola.acdh-dev.oeaw.ac.at"

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "sola-website/1.0"

	// DefaultLocale is the locale whose names need no localisation.
	DefaultLocale = "de"

	// DefaultPageLimit is large enough to return full collections in one page.
	DefaultPageLimit = 10_000
)

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Config holds configuration for a Client.
type Config struct {
	// BaseURL of the SOLA backend. Default: DefaultBaseURL.
	BaseURL string

	// HTTPClient performs requests. If nil, http.DefaultClient is used.
	HTTPClient HTTPClient

	// UserAgent header. Default: DefaultUserAgent.
	UserAgent string

	// Timeout per request. Zero means no timeout.
	Timeout time.Duration

	// DefaultLocale is the locale served by the plain `name` field.
	// Default: DefaultLocale.
	DefaultLocale string

	// Tracer for request spans. If nil, the global provider's tracer is used.
	Tracer trace.Tracer
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		UserAgent:     DefaultUserAgent,
		DefaultLocale: DefaultLocale,
	}
}

// Client is a typed wrapper around the SOLA REST API.
type Client struct {
	baseURL       *url.URL
	httpClient    HTTPClient
	userAgent     string
	timeout       time.Duration
	defaultLocale string
	tracer        trace.Tracer
}

// NewClient creates a Client. Empty config fields take their defaults.
func NewClient(config Config) (*Client, error) {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.DefaultLocale == "" {
		config.DefaultLocale = defaults.DefaultLocale
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", config.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host required", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/solaproject/sola/internal/sola")
	}

	return &Client{
		baseURL:       base,
		httpClient:    httpClient,
		userAgent:     config.UserAgent,
		timeout:       config.Timeout,
		defaultLocale: config.DefaultLocale,
		tracer:        tracer,
	}, nil
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Entities queries the combined entity endpoint. Results carry their own
// type discriminator.
func (c *Client) Entities(ctx context.Context, locale string, query Query) (*Results[Entity], error) {
	var data Results[Entity]
	if err := c.get(ctx, "/apis/api/entities/", query, &data); err != nil {
		return nil, err
	}
	for i := range data.Results {
		c.prepareEntity(&data.Results[i], data.Results[i].Type, locale)
	}
	return &data, nil
}

// ListEntities queries the list endpoint of one entity type.
func (c *Client) ListEntities(ctx context.Context, entityType EntityType, locale string, query Query) (*Results[Entity], error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("invalid entity type %d", int(entityType))
	}
	var data Results[Entity]
	if err := c.get(ctx, "/apis/api/entities/"+entityType.Path()+"/", query, &data); err != nil {
		return nil, err
	}
	for i := range data.Results {
		c.prepareEntity(&data.Results[i], entityType, locale)
	}
	return &data, nil
}

// EntityByID fetches one entity with its relations.
func (c *Client) EntityByID(ctx context.Context, entityType EntityType, id int, locale string) (*EntityDetails, error) {
	if !entityType.Valid() {
		return nil, fmt.Errorf("invalid entity type %d", int(entityType))
	}
	var data EntityDetails
	path := "/apis/api/entities/" + entityType.Path() + "/" + strconv.Itoa(id) + "/"
	if err := c.get(ctx, path, nil, &data); err != nil {
		return nil, err
	}
	c.prepareEntity(&data.Entity, entityType, locale)
	return &data, nil
}

// PassageTopics lists the passage topic vocabulary.
func (c *Client) PassageTopics(ctx context.Context, locale string, query Query) (*Results[Vocabulary], error) {
	return c.vocabulary(ctx, "/apis/api/vocabularies/passagetopics/", locale, query)
}

// PassageTypes lists the passage type vocabulary.
func (c *Client) PassageTypes(ctx context.Context, locale string, query Query) (*Results[Vocabulary], error) {
	return c.vocabulary(ctx, "/apis/api/vocabularies/passagetype/", locale, query)
}

// TextTypes lists the text type vocabulary.
func (c *Client) TextTypes(ctx context.Context, locale string, query Query) (*Results[TextType], error) {
	var data Results[TextType]
	if err := c.get(ctx, "/apis/api/vocabularies/texttype/", query, &data); err != nil {
		return nil, err
	}
	for i := range data.Results {
		c.localiseVocabulary(&data.Results[i].Vocabulary, locale)
	}
	return &data, nil
}

// Texts lists texts, usually filtered with id__in.
func (c *Client) Texts(ctx context.Context, query Query) (*Results[Text], error) {
	var data Results[Text]
	if err := c.get(ctx, "/apis/api/metainfo/text/", query, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// TextByID fetches one text. Pass highlight=true to include annotations.
func (c *Client) TextByID(ctx context.Context, id int, query Query) (*TextDetails, error) {
	var data TextDetails
	if err := c.get(ctx, "/apis/api/metainfo/text/"+strconv.Itoa(id)+"/", query, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// PassagePublicationRelations lists passage→publication relations.
func (c *Client) PassagePublicationRelations(ctx context.Context, query Query) (*Results[PassagePublicationRelation], error) {
	var data Results[PassagePublicationRelation]
	if err := c.get(ctx, "/apis/api/relations/passagepublication/", query, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Bibliography returns the bibsonomy references of an entity. The query
// must carry contenttype; attribute=include adds attribute references.
func (c *Client) Bibliography(ctx context.Context, id int, query Query) ([]BibsonomyReference, error) {
	var data []BibsonomyReference
	if err := c.get(ctx, "/bibsonomy/save_get/", Query{"object_pk": id}.With(query), &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) vocabulary(ctx context.Context, path, locale string, query Query) (*Results[Vocabulary], error) {
	var data Results[Vocabulary]
	if err := c.get(ctx, path, query, &data); err != nil {
		return nil, err
	}
	for i := range data.Results {
		c.localiseVocabulary(&data.Results[i], locale)
	}
	return &data, nil
}

// prepareEntity tags e with its type and localises its name. Persons have
// no kind on the backend.
func (c *Client) prepareEntity(e *Entity, entityType EntityType, locale string) {
	e.Type = entityType
	if entityType == Person {
		e.Kind = []Ref{}
	}
	if locale != c.defaultLocale && e.NameEnglish != nil && *e.NameEnglish != "" {
		e.Name = *e.NameEnglish
	}
}

func (c *Client) localiseVocabulary(v *Vocabulary, locale string) {
	if locale != c.defaultLocale && v.NameEnglish != nil && *v.NameEnglish != "" {
		v.Name = *v.NameEnglish
	}
}

func (c *Client) get(ctx context.Context, path string, query Query, out any) error {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimRight(c.baseURL.Path, "/") + path})
	endpoint.RawQuery = query.Encode()
	target := endpoint.String()

	ctx, span := c.tracer.Start(ctx, "sola.get", trace.WithAttributes(
		attribute.String("http.method", http.MethodGet),
		attribute.String("url.full", target),
	))
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", target, err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", c.userAgent)

	response, err := c.httpClient.Do(request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer response.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", response.StatusCode))
	if response.StatusCode < 200 || response.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, response.Body)
		httpErr := &HTTPError{StatusCode: response.StatusCode, Status: response.Status, URL: target}
		span.SetStatus(codes.Error, httpErr.Error())
		return httpErr
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return fmt.Errorf("failed to decode response from %s: %w", target, err)
	}
	return nil
}
