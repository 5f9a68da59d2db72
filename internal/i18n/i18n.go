// Package i18n holds the two site locales and their UI labels.
package i18n

import (
	"fmt"
	"slices"
	"time"

	"golang.org/x/text/language"

	"github.com/solaproject/sola/internal/sola"
)

// Supported locales.
const (
	German  = "de"
	English = "en"

	DefaultLocale = German
)

var matcher = language.NewMatcher([]language.Tag{language.German, language.English})

// Locales returns the supported locales, default first.
func Locales() []string {
	return []string{German, English}
}

// Supported reports whether locale is one of Locales.
func Supported(locale string) bool {
	return slices.Contains(Locales(), locale)
}

// Resolve maps any BCP 47 tag or Accept-Language value to a supported
// locale, falling back to DefaultLocale.
func Resolve(locale string) string {
	if Supported(locale) {
		return locale
	}
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	return Locales()[index]
}

var shortMonths = map[string][12]string{
	German:  {"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
	English: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// ShortMonth returns the abbreviated month name.
func ShortMonth(locale string, m time.Month) string {
	months, ok := shortMonths[locale]
	if !ok {
		months = shortMonths[DefaultLocale]
	}
	return months[m-1]
}

// FormatTick labels a time axis tick: the year on January 1st, the
// short month name otherwise.
func FormatTick(locale string, t time.Time) string {
	if t.Month() == time.January {
		return fmt.Sprint(t.Year())
	}
	return ShortMonth(locale, t.Month())
}

// FormatDate formats a date the way each locale writes it numerically.
func FormatDate(locale string, t time.Time) string {
	if Resolve(locale) == English {
		return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
	}
	return fmt.Sprintf("%d.%d.%d", t.Day(), int(t.Month()), t.Year())
}

// Labels are the UI strings of one locale.
type Labels struct {
	Locale string

	SiteTitle string
	Home      string
	Dataset   string
	Posts     string
	Team      string
	About     string
	Imprint   string

	ExploreDataset string
	ReadMore       string
	FormerTeam     string

	Passages string
	Other    string

	Authors        string
	Topics         string
	Types          string
	Search         string
	Reset          string
	Relations      string
	BiblePassages  string
	PrimaryText    string
	Bibliography   string
	EditedBy       string
	SelectEntity   string
	NotFound       string
	UnexpectedErr  string
	UpstreamFailed string

	entityTypes [sola.EntityTypeCount][2]string
}

// EntityType returns the singular or plural label of t.
func (l Labels) EntityType(t sola.EntityType, plural bool) string {
	if !t.Valid() {
		return t.String()
	}
	if plural {
		return l.entityTypes[t][1]
	}
	return l.entityTypes[t][0]
}

var labels = map[string]Labels{
	German: {
		Locale:         German,
		SiteTitle:      "SOLA",
		Home:           "Startseite",
		Dataset:        "Passagen",
		Posts:          "Neuigkeiten",
		Team:           "Team",
		About:          "Über das Projekt",
		Imprint:        "Impressum",
		ExploreDataset: "Zur Datenbank",
		ReadMore:       "Weiterlesen",
		FormerTeam:     "Ehemalige Mitarbeiter*innen",
		Passages:       "Passagen",
		Other:          "Andere",
		Authors:        "AutorInnen",
		Topics:         "Themen",
		Types:          "Gattungen",
		Search:         "Suchen",
		Reset:          "Zurücksetzen",
		Relations:      "Beziehungen",
		BiblePassages:  "Bibel-Passagen",
		PrimaryText:    "Primärtext",
		Bibliography:   "Bibliographie",
		EditedBy:       "Bearbeitet von",
		SelectEntity:   "Bitte Punkt in der Visualisierung auswählen, um Details zu sehen.",
		NotFound:       "Seite nicht gefunden.",
		UnexpectedErr:  "Ein unerwarteter Fehler ist aufgetreten.",
		UpstreamFailed: "Daten konnten nicht geladen werden.",
		entityTypes: [sola.EntityTypeCount][2]string{
			sola.Event:       {"Ereignis", "Ereignisse"},
			sola.Institution: {"Institution", "Institutionen"},
			sola.Passage:     {"Passage", "Passagen"},
			sola.Person:      {"Person", "Personen"},
			sola.Place:       {"Ort", "Orte"},
			sola.Publication: {"Werk", "Werke"},
		},
	},
	English: {
		Locale:         English,
		SiteTitle:      "SOLA",
		Home:           "Home",
		Dataset:        "Passages",
		Posts:          "News",
		Team:           "Team",
		About:          "About the project",
		Imprint:        "Imprint",
		ExploreDataset: "Explore the dataset",
		ReadMore:       "Read more",
		FormerTeam:     "Former team members",
		Passages:       "Passages",
		Other:          "Other",
		Authors:        "Authors",
		Topics:         "Topics",
		Types:          "Types",
		Search:         "Search",
		Reset:          "Reset",
		Relations:      "Relations",
		BiblePassages:  "Bible passages",
		PrimaryText:    "Primary text",
		Bibliography:   "Bibliography",
		EditedBy:       "Edited by",
		SelectEntity:   "Please select an entity in the timeline above to view details.",
		NotFound:       "Page not found.",
		UnexpectedErr:  "An unexpected error has occurred.",
		UpstreamFailed: "Data could not be loaded.",
		entityTypes: [sola.EntityTypeCount][2]string{
			sola.Event:       {"Event", "Events"},
			sola.Institution: {"Institution", "Institutions"},
			sola.Passage:     {"Passage", "Passages"},
			sola.Person:      {"Person", "Persons"},
			sola.Place:       {"Place", "Places"},
			sola.Publication: {"Work", "Works"},
		},
	},
}

// For returns the labels of locale, or of DefaultLocale when unsupported.
func For(locale string) Labels {
	if l, ok := labels[locale]; ok {
		return l
	}
	return labels[DefaultLocale]
}
