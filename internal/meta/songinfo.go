package meta

import "sort"

// RawTags maps raw tag field names to their string values as read from a file
type RawTags map[string]string

// Raw tag field names. Pattern rules and the tag map refer to these.
const (
	RawTitle               = "title"
	RawArtist              = "artist"
	RawAlbum               = "album"
	RawAlbumArtist         = "performerInfo"
	RawGenre               = "genre"
	RawTrack               = "trackNumber"
	RawDisc                = "partOfSet"
	RawYear                = "year"
	RawReleaseTime         = "releaseTime"
	RawOriginalReleaseTime = "originalReleaseTime"
	RawRecordingTime       = "recordingTime"
)

// ReleaseDateChain lists the raw fields a release date is taken from, most
// preferred first
var ReleaseDateChain = []string{RawReleaseTime, RawOriginalReleaseTime, RawRecordingTime, RawYear}

// SongInfo is the normalised record built for one file.
// Scalars are reached through the accessor table below; list attributes are
// keyed by pattern group name.
type SongInfo struct {
	Title        string            `json:"title,omitempty"`
	Artist       string            `json:"artist,omitempty"`
	ReleaseTitle string            `json:"releaseTitle,omitempty"`
	Genre        string            `json:"genre,omitempty"`
	TrackNumber  string            `json:"trackNumber,omitempty"`
	TrackTotal   string            `json:"trackTotal,omitempty"`
	DiscNumber   string            `json:"discNumber,omitempty"`
	DiscTotal    string            `json:"discTotal,omitempty"`
	ReleaseDate  string            `json:"releaseDate,omitempty"`
	Year         string            `json:"year,omitempty"`
	Lists        map[string][]Item `json:"lists,omitempty"`
}

var scalarFields = map[string]func(*SongInfo) *string{
	"title":        func(s *SongInfo) *string { return &s.Title },
	"artist":       func(s *SongInfo) *string { return &s.Artist },
	"releaseTitle": func(s *SongInfo) *string { return &s.ReleaseTitle },
	"genre":        func(s *SongInfo) *string { return &s.Genre },
	"trackNumber":  func(s *SongInfo) *string { return &s.TrackNumber },
	"trackTotal":   func(s *SongInfo) *string { return &s.TrackTotal },
	"discNumber":   func(s *SongInfo) *string { return &s.DiscNumber },
	"discTotal":    func(s *SongInfo) *string { return &s.DiscTotal },
	"releaseDate":  func(s *SongInfo) *string { return &s.ReleaseDate },
	"year":         func(s *SongInfo) *string { return &s.Year },
}

// IsScalarField reports whether name is one of the scalar attributes
func IsScalarField(name string) bool {
	_, ok := scalarFields[name]
	return ok
}

// ScalarFieldNames returns the scalar attribute names, sorted
func ScalarFieldNames() []string {
	names := make([]string, 0, len(scalarFields))
	for name := range scalarFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scalar returns a scalar attribute; ok is false if name is not a scalar
func (s *SongInfo) Scalar(name string) (value string, ok bool) {
	get, ok := scalarFields[name]
	if !ok {
		return "", false
	}
	return *get(s), true
}

// SetScalar sets a scalar attribute and reports whether name was known
func (s *SongInfo) SetScalar(name, value string) bool {
	get, ok := scalarFields[name]
	if !ok {
		return false
	}
	*get(s) = value
	return true
}

// List returns a list attribute
func (s *SongInfo) List(name string) ([]Item, bool) {
	items, ok := s.Lists[name]
	return items, ok
}

// SetList sets a list attribute
func (s *SongInfo) SetList(name string, items []Item) {
	if s.Lists == nil {
		s.Lists = make(map[string][]Item)
	}
	s.Lists[name] = items
}

// Kind distinguishes scalar from list attributes
type Kind int

const (
	KindScalar Kind = iota
	KindList
)

// Value is the result of looking up an attribute by name
type Value struct {
	Kind   Kind
	Scalar string
	List   []Item
}

// Lookup resolves an attribute by name; ok is false when the record has no
// attribute of that name
func (s *SongInfo) Lookup(name string) (Value, bool) {
	if v, ok := s.Scalar(name); ok {
		return Value{Kind: KindScalar, Scalar: v}, true
	}
	if items, ok := s.List(name); ok {
		return Value{Kind: KindList, List: items}, true
	}
	return Value{}, false
}

// Exists is the truthiness test used by conditional and interactive
// directives: a non-empty list or a non-empty scalar
func (s *SongInfo) Exists(name string) bool {
	v, ok := s.Lookup(name)
	if !ok {
		return false
	}
	if v.Kind == KindList {
		return len(v.List) > 0
	}
	return v.Scalar != ""
}
