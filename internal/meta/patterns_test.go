package meta

import (
	"errors"
	"reflect"
	"testing"

	"github.com/franz/tag-enforcer/internal/util"
)

func defaultLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := NewLibrary(DefaultGroups())
	if err != nil {
		t.Fatalf("NewLibrary(DefaultGroups()) failed: %v", err)
	}
	return lib
}

func TestNewLibraryRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []GroupDefinition
	}{
		{"empty name", []GroupDefinition{{Name: ""}}},
		{"duplicate group", []GroupDefinition{{Name: "a"}, {Name: "a"}}},
		{"shadows scalar", []GroupDefinition{{Name: "title"}}},
		{"bad regex", []GroupDefinition{{Name: "a", Rules: []RuleDefinition{{Pattern: `(unclosed`, Fields: []string{RawTitle}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLibrary(tt.defs)
			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Errorf("NewLibrary() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLibraryKeepsGroupOrder(t *testing.T) {
	lib := defaultLibrary(t)

	var names []string
	for _, g := range lib.Groups() {
		names = append(names, g.Name)
	}
	want := []string{"remixers", "qualifiers", "featuredArtists", "releaseQualifiers"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Groups() = %v, want %v", names, want)
	}
}

func TestExtractGroup(t *testing.T) {
	lib := defaultLibrary(t)

	tests := []struct {
		name  string
		group string
		raw   RawTags
		want  []Item
	}{
		{
			name:  "remixer in parens",
			group: "remixers",
			raw:   RawTags{RawTitle: "Song (DJ X Remix)"},
			want:  []Item{Structured(map[string]string{"artist": "DJ X", "type": "Remix"})},
		},
		{
			name:  "remixer after dash",
			group: "remixers",
			raw:   RawTags{RawTitle: "Song - Foo Flip"},
			want:  []Item{Structured(map[string]string{"artist": "Foo", "type": "Flip"})},
		},
		{
			name:  "qualifier in brackets",
			group: "qualifiers",
			raw:   RawTags{RawTitle: "Song [Live at Red Rocks]"},
			want:  []Item{Text("Live at Red Rocks")},
		},
		{
			name:  "featured artists across fields keep first-seen order",
			group: "featuredArtists",
			raw:   RawTags{RawTitle: "Song (feat. Baz)", RawArtist: "Foo, Bar"},
			want:  []Item{Text("Baz"), Text("Bar")},
		},
		{
			name:  "duplicates across fields collapse",
			group: "featuredArtists",
			raw:   RawTags{RawTitle: "Song (ft. A)", RawArtist: "B ft. A"},
			want:  []Item{Text("A")},
		},
		{
			name:  "release qualifier needs a word boundary",
			group: "releaseQualifiers",
			raw:   RawTags{RawAlbum: "Album Epic"},
			want:  []Item{},
		},
		{
			name:  "release qualifier suffix",
			group: "releaseQualifiers",
			raw:   RawTags{RawAlbum: "Album EP"},
			want:  []Item{Text("EP")},
		},
		{
			name:  "no match is silent",
			group: "remixers",
			raw:   RawTags{RawTitle: "Plain Song"},
			want:  []Item{},
		},
		{
			name:  "missing field is silent",
			group: "remixers",
			raw:   RawTags{},
			want:  []Item{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lib.Extract(tt.group, tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q, %v) = %#v, want %#v", tt.group, tt.raw, got, tt.want)
			}
		})
	}
}

func TestExtractEmptyPrimaryCapture(t *testing.T) {
	lib, err := NewLibrary([]GroupDefinition{
		{Name: "mixed", Rules: []RuleDefinition{{Pattern: `\((?P<group>x?)(?P<other>y)\)`, Fields: []string{RawTitle}}}},
		{Name: "bare", Rules: []RuleDefinition{{Pattern: `\((?P<group>x?)\)`, Fields: []string{RawTitle}}}},
	})
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}

	tests := []struct {
		group string
		title string
		want  []Item
	}{
		{"mixed", "a (xy) b", []Item{Text("x")}},
		{"mixed", "a (y) b", []Item{Structured(map[string]string{"other": "y"})}},
		{"bare", "a () b", []Item{}},
	}

	for _, tt := range tests {
		got := lib.Extract(tt.group, RawTags{RawTitle: tt.title})
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Extract(%q, %q) = %#v, want %#v", tt.group, tt.title, got, tt.want)
		}
	}
}

func TestExtractUnknownGroup(t *testing.T) {
	lib := defaultLibrary(t)
	if got := lib.Extract("nope", RawTags{RawTitle: "x"}); len(got) != 0 {
		t.Errorf("Extract(unknown) = %v, want empty", got)
	}
}

func TestScrubField(t *testing.T) {
	lib := defaultLibrary(t)

	tests := []struct {
		field string
		input string
		want  string
	}{
		{RawTitle, "Song (DJ X Remix)", "Song"},
		{RawTitle, "Song (DJ X Remix) [Live at Red Rocks]", "Song"},
		{RawTitle, "Song (feat. Baz) (Bonus)", "Song"},
		{RawTitle, "Song - Foo Edit", "Song"},
		{RawArtist, "Foo, Bar", "Foo"},
		{RawArtist, "Foo ft. Bar", "Foo"},
		{RawArtist, "Foo, and bar", "Foo, and bar"},
		{RawAlbum, "Album EP", "Album"},
		{RawAlbum, "Album Epic", "Album Epic"},
		{RawAlbum, "  Spaced   Album  ", "Spaced Album"},
		{RawGenre, "House (DJ X Remix)", "House (DJ X Remix)"},
		{RawTitle, "", ""},
	}

	for _, tt := range tests {
		got := lib.Scrub(tt.input, tt.field)
		if got != tt.want {
			t.Errorf("Scrub(%q, %q) = %q, want %q", tt.input, tt.field, got, tt.want)
		}
	}
}

func TestScrubFieldIsIdempotent(t *testing.T) {
	lib := defaultLibrary(t)

	inputs := []string{
		"Song (DJ X Remix)",
		"Song [Foo Edit] (Live) [ft. Bar]",
		"Song - Foo Remix (Bonus Track)",
		"Foo, Bar, Baz",
		"Album [Foo Deluxe] EP",
		"Nothing to see here",
	}

	for _, field := range []string{RawTitle, RawArtist, RawAlbum} {
		for _, input := range inputs {
			once := lib.Scrub(input, field)
			twice := lib.Scrub(once, field)
			if once != twice {
				t.Errorf("Scrub not idempotent for %q (%s): %q then %q", input, field, once, twice)
			}
		}
	}
}
