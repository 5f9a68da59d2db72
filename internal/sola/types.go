package sola

import (
	"fmt"
	"strings"
)

// EntityType discriminates the six kinds of SOLA research entities.
type EntityType int

const (
	Event EntityType = iota
	Institution
	Passage
	Person
	Place
	Publication
)

// InvalidEntityType stands for a type name the client does not know.
const InvalidEntityType EntityType = -1

// EntityTypeCount is the number of entity types. Per-type aggregates are
// arrays of this length indexed by EntityType.
const EntityTypeCount = 6

var entityTypeNames = [EntityTypeCount]string{
	"Event",
	"Institution",
	"Passage",
	"Person",
	"Place",
	"Publication",
}

// EntityTypes returns all entity types in declaration order.
func EntityTypes() []EntityType {
	return []EntityType{Event, Institution, Passage, Person, Place, Publication}
}

// Valid reports whether t is one of the six known types.
func (t EntityType) Valid() bool {
	return t >= 0 && int(t) < EntityTypeCount
}

func (t EntityType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("EntityType(%d)", int(t))
	}
	return entityTypeNames[t]
}

// Path returns the list endpoint path segment, e.g. "person".
func (t EntityType) Path() string {
	return strings.ToLower(t.String())
}

// ParseEntityType parses a type name case-insensitively ("person" and
// "PERSON" both yield Person).
func ParseEntityType(s string) (EntityType, error) {
	s = strings.TrimSpace(s)
	for i, name := range entityTypeNames {
		if strings.EqualFold(name, s) {
			return EntityType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown entity type %q", s)
}

// MarshalText encodes the type as its capitalized name, matching the backend.
// Invalid types encode as the empty string.
func (t EntityType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return []byte{}, nil
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a capitalized (or otherwise cased) type name.
// Unknown names decode to InvalidEntityType so that one foreign record
// does not fail a whole result page.
func (t *EntityType) UnmarshalText(text []byte) error {
	parsed, err := ParseEntityType(string(text))
	if err != nil {
		*t = InvalidEntityType
		return nil
	}
	*t = parsed
	return nil
}

// Ref is the {id, label} pair the backend uses for embedded references.
type Ref struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// TopicRef is a passage topic reference carrying its parent topic.
type TopicRef struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	ParentID *int   `json:"parent_id"`
}

// EntityRef identifies an entity across types.
type EntityRef struct {
	ID   int        `json:"id"`
	Type EntityType `json:"type"`
}

// Entity is a list-endpoint record of any of the six types. Type is the
// discriminator; variant fields are only populated for their type:
// Passage (Topic, MigneNumber), Publication (Language, ClavisNumber,
// MigneNumber), Place (Lat, Lng), Person (Gender).
type Entity struct {
	ID          int        `json:"id"`
	Type        EntityType `json:"type"`
	Name        string     `json:"name"`
	NameEnglish *string    `json:"name_english,omitempty"`

	AssignedUser *Ref `json:"assigned_user"`

	PrimaryDate      *string `json:"primary_date"`
	StartDate        *string `json:"start_date"`
	StartStartDate   *string `json:"start_start_date,omitempty"`
	StartEndDate     *string `json:"start_end_date,omitempty"`
	StartDateIsExact *bool   `json:"start_date_is_exact"`
	StartDateWritten *string `json:"start_date_written"`
	EndDate          *string `json:"end_date"`
	EndStartDate     *string `json:"end_start_date,omitempty"`
	EndEndDate       *string `json:"end_end_date,omitempty"`
	EndDateIsExact   *bool   `json:"end_date_is_exact"`
	EndDateWritten   *string `json:"end_date_written"`

	Kind []Ref `json:"kind"`
	Text []Ref `json:"text"`

	Topic        []TopicRef `json:"topic,omitempty"`
	MigneNumber  *string    `json:"migne_number,omitempty"`
	ClavisNumber *string    `json:"clavis_number,omitempty"`
	Language     *Ref       `json:"language,omitempty"`
	Lat          *float64   `json:"lat,omitempty"`
	Lng          *float64   `json:"lng,omitempty"`
	Gender       *string    `json:"gender,omitempty"`
}

// Ref returns the cross-type identity of e.
func (e Entity) Ref() EntityRef {
	return EntityRef{ID: e.ID, Type: e.Type}
}

// HasPrimaryDate reports whether e carries a non-empty primary date.
func (e Entity) HasPrimaryDate() bool {
	return e.PrimaryDate != nil && *e.PrimaryDate != ""
}

// RelatedEntity is the target of a Relation.
type RelatedEntity struct {
	ID    int        `json:"id"`
	Label string     `json:"label"`
	Type  EntityType `json:"type"`
}

// Relation is a directed, typed edge from an entity to another entity.
type Relation struct {
	ID            int           `json:"id"`
	Label         string        `json:"label"`
	RelationType  Ref           `json:"relation_type"`
	RelatedEntity RelatedEntity `json:"related_entity"`
}

// EntityDetails is the detail-endpoint form of an entity, with relations.
type EntityDetails struct {
	Entity
	Relations []Relation `json:"relations"`
}

// Vocabulary is a controlled term (passage topic, passage type, text type)
// with an optional parent forming a taxonomy.
type Vocabulary struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	NameEnglish *string `json:"name_english,omitempty"`
	ParentClass *Ref    `json:"parent_class"`
}

// ParentID returns the parent vocabulary id, if any.
func (v Vocabulary) ParentID() (int, bool) {
	if v.ParentClass == nil {
		return 0, false
	}
	return v.ParentClass.ID, true
}

// TextType is a vocabulary entry scoped to an entity type.
type TextType struct {
	Vocabulary
	Entity EntityType `json:"entity"`
}

// Text is a full text attached to an entity.
type Text struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Kind Ref    `json:"kind"`
}

// TextAnnotation marks a span of a text that refers to another object.
type TextAnnotation struct {
	ID            int `json:"id"`
	Start         int `json:"start"`
	End           int `json:"end"`
	RelatedObject Ref `json:"related_object"`
}

// TextDetails is a text including its annotations.
type TextDetails struct {
	ID          int              `json:"id"`
	Text        string           `json:"text"`
	Kind        Ref              `json:"kind"`
	Annotations []TextAnnotation `json:"annotations"`
}

// PassagePublicationRelation is the relation-endpoint record linking a
// passage to a publication, carrying bible citation metadata.
type PassagePublicationRelation struct {
	ID                 int     `json:"id"`
	PrimaryDate        *string `json:"primary_date"`
	StartDate          *string `json:"start_date"`
	EndDate            *string `json:"end_date"`
	RelationType       Ref     `json:"relation_type"`
	RelatedPassage     Ref     `json:"related_passage"`
	RelatedPublication Ref     `json:"related_publication"`
	BibleBookRef       *string `json:"bible_book_ref"`
	BibleChapterRef    *string `json:"bible_chapter_ref"`
	BibleVerseRef      *string `json:"bible_verse_ref"`
}

// BibsonomyReference is a bibliography entry attached to an entity or to
// one of its attributes (Attribute nil means the entity itself).
type BibsonomyReference struct {
	PK         int     `json:"pk"`
	Attribute  *string `json:"attribute"`
	EntryType  string  `json:"entrytype"`
	Author     string  `json:"author"`
	Title      string  `json:"title"`
	Address    string  `json:"address"`
	Publisher  string  `json:"publisher"`
	Year       string  `json:"year"`
	PagesStart string  `json:"pages_start"`
	PagesEnd   string  `json:"pages_end"`
	URL        string  `json:"url"`
	Href       string  `json:"href"`
}

// Results is the paginated list envelope returned by every list endpoint.
type Results[T any] struct {
	Count    int     `json:"count"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
