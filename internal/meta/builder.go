package meta

import "strings"

// Builder turns raw tags into a SongInfo using a pattern library
type Builder struct {
	library *Library
}

// NewBuilder creates a Builder
func NewBuilder(library *Library) *Builder {
	return &Builder{library: library}
}

// Build extracts every configured group, scrubs title, artist and album,
// splits the track and disc counters and resolves the release date.
// raw is only read.
func (b *Builder) Build(raw RawTags) *SongInfo {
	info := &SongInfo{Lists: make(map[string][]Item)}

	for _, group := range b.library.Groups() {
		info.Lists[group.Name] = ExtractGroup(group, raw)
	}

	info.Title = b.library.Scrub(raw[RawTitle], RawTitle)
	info.Artist = b.library.Scrub(raw[RawArtist], RawArtist)
	info.ReleaseTitle = b.library.Scrub(raw[RawAlbum], RawAlbum)
	info.Genre = CleanString(raw[RawGenre])
	info.TrackNumber, info.TrackTotal = SplitCounter(raw[RawTrack])
	info.DiscNumber, info.DiscTotal = SplitCounter(raw[RawDisc])
	info.ReleaseDate = ResolveReleaseDate(raw)
	info.Year = YearOf(info.ReleaseDate)

	return info
}

// SplitCounter splits an "N/M" counter into its parts.
// "5" yields ("5", ""), "" yields ("", "").
func SplitCounter(field string) (number, total string) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", ""
	}
	number, total, _ = strings.Cut(field, "/")
	return strings.TrimSpace(number), strings.TrimSpace(total)
}

// ResolveReleaseDate returns the first usable value along ReleaseDateChain.
// Some taggers write the literal string "undefined"; it is skipped.
func ResolveReleaseDate(raw RawTags) string {
	for _, field := range ReleaseDateChain {
		v := strings.TrimSpace(raw[field])
		if v != "" && v != "undefined" {
			return v
		}
	}
	return ""
}

// YearOf returns the leading year component of a date such as "2019-05-01"
func YearOf(date string) string {
	year, _, _ := strings.Cut(strings.TrimSpace(date), "-")
	return year
}
