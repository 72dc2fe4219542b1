package types

import (
	"errors"
	"strings"
)

// ErrEmptyCriteria is returned when a harvest is requested without any criteria.
var ErrEmptyCriteria = errors.New("at least one field must be filled")

// SearchCriteria holds the user's artist/genre/year filters. All fields are optional
// but at least one must be present.
type SearchCriteria struct {
	Artists string `json:"artists,omitempty" toml:"artists"`
	Genre   string `json:"genre,omitempty" toml:"genre"`
	Year    string `json:"year,omitempty" toml:"year"`
}

// Normalize trims surrounding whitespace from every field
func (c SearchCriteria) Normalize() SearchCriteria {
	return SearchCriteria{
		Artists: strings.TrimSpace(c.Artists),
		Genre:   strings.TrimSpace(c.Genre),
		Year:    strings.TrimSpace(c.Year),
	}
}

// Validate rejects criteria where every field is blank
func (c SearchCriteria) Validate() error {
	n := c.Normalize()
	if n.Artists == "" && n.Genre == "" && n.Year == "" {
		return ErrEmptyCriteria
	}
	return nil
}

// PrioritizationInput is the model-facing view of the criteria. Absent fields are
// sent as empty strings.
type PrioritizationInput struct {
	Artists string `json:"artists"`
	Genre   string `json:"genre"`
	Year    string `json:"year"`
}

// PrioritizationInput coerces the criteria into the prompt input
func (c SearchCriteria) PrioritizationInput() PrioritizationInput {
	n := c.Normalize()
	return PrioritizationInput{Artists: n.Artists, Genre: n.Genre, Year: n.Year}
}

// PrioritizationResult is the search plan chosen by the model
type PrioritizationResult struct {
	SearchQuery string `json:"searchQuery"`
	Source      string `json:"source"`
}

// Song is a catalog entry after resolution and conversion
type Song struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Popularity  int    `json:"popularity"`  // 0-100
	FileContent string `json:"fileContent"` // base64, empty on failure
}

// HarvesterResult is the combined output of one harvest, songs ordered by
// popularity descending.
type HarvesterResult struct {
	AIResult PrioritizationResult `json:"aiResult"`
	Songs    []Song               `json:"songs"`
}

// AudioMetadata represents tag metadata probed from harvested audio
type AudioMetadata struct {
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Format      string `json:"format,omitempty"`
	TrackNumber int    `json:"trackNumber,omitempty"`
}
