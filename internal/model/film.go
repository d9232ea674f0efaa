package model

import "time"

// Film is an entry of the catalog.  Showings reference a film and
// borrow its DurationMin to compute their screening interval, so the
// duration must always be positive.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  Description – synopsis (may be empty).
//  DurationMin – running time in minutes.
//  Language    – spoken language of the print.
//  Genre       – free-form genre label.
//  ImageURL    – poster location (no upload handling, plain URL).
//  Trailer     – trailer URL.
//  Director    – director name.
//  ReleaseYear – year of release, zero when unknown.
type Film struct {
    ID          uint64    `json:"id"`           // films.id
    Title       string    `json:"title"`        // films.title
    Description string    `json:"description"`  // films.description
    DurationMin uint32    `json:"duration_min"` // films.duration_min
    Language    string    `json:"language"`     // films.language
    Genre       string    `json:"genre"`        // films.genre
    ImageURL    string    `json:"image_url"`    // films.image_url
    Trailer     string    `json:"trailer"`      // films.trailer
    Director    string    `json:"director"`     // films.director
    ReleaseYear uint32    `json:"release_year"` // films.release_year
    CreatedAt   time.Time `json:"created_at"`   // films.created_at
    UpdatedAt   time.Time `json:"updated_at"`   // films.updated_at
}

// Duration returns the running time as a time.Duration.
func (f Film) Duration() time.Duration {
    return time.Duration(f.DurationMin) * time.Minute
}
