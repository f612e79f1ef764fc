package meta

import (
	"fmt"
	"regexp"

	"github.com/franz/tag-enforcer/internal/util"
)

// PrimaryGroup is the capture name whose text becomes a plain list item.
// Rules without it produce structured items holding every named capture.
const PrimaryGroup = "group"

// RuleDefinition is the configuration form of a PatternRule
type RuleDefinition struct {
	Pattern string   `mapstructure:"pattern" yaml:"pattern"`
	Fields  []string `mapstructure:"fields" yaml:"fields"`
}

// GroupDefinition is the configuration form of a PatternGroup
type GroupDefinition struct {
	Name  string           `mapstructure:"name" yaml:"name"`
	Rules []RuleDefinition `mapstructure:"rules" yaml:"rules"`
}

// PatternRule is a compiled matcher plus the raw fields it reads
type PatternRule struct {
	Matcher *regexp.Regexp
	Fields  []string
}

// AppliesTo reports whether the rule reads the given raw field
func (r PatternRule) AppliesTo(field string) bool {
	for _, f := range r.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// PatternGroup is a named, ordered list of rules. The group name becomes the
// name of the list attribute on SongInfo.
type PatternGroup struct {
	Name  string
	Rules []PatternRule
}

// Library holds the configured pattern groups in declaration order
type Library struct {
	groups []PatternGroup
}

// NewLibrary compiles group definitions into a Library
func NewLibrary(defs []GroupDefinition) (*Library, error) {
	lib := &Library{groups: make([]PatternGroup, 0, len(defs))}
	seen := make(map[string]bool)

	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: pattern group without a name", util.ErrInvalidConfig)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("%w: duplicate pattern group %q", util.ErrInvalidConfig, def.Name)
		}
		if IsScalarField(def.Name) {
			return nil, fmt.Errorf("%w: pattern group %q shadows a scalar field", util.ErrInvalidConfig, def.Name)
		}
		seen[def.Name] = true

		group := PatternGroup{Name: def.Name, Rules: make([]PatternRule, 0, len(def.Rules))}
		for i, rd := range def.Rules {
			re, err := regexp.Compile(rd.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: group %q rule %d: %v", util.ErrInvalidConfig, def.Name, i, err)
			}
			group.Rules = append(group.Rules, PatternRule{Matcher: re, Fields: rd.Fields})
		}
		lib.groups = append(lib.groups, group)
	}

	return lib, nil
}

// MustLibrary is NewLibrary for definitions known to be valid
func MustLibrary(defs []GroupDefinition) *Library {
	lib, err := NewLibrary(defs)
	if err != nil {
		panic(err)
	}
	return lib
}

// Groups returns the groups in declaration order
func (l *Library) Groups() []PatternGroup {
	return l.groups
}

// Group returns the named group
func (l *Library) Group(name string) (PatternGroup, bool) {
	for _, g := range l.groups {
		if g.Name == name {
			return g, true
		}
	}
	return PatternGroup{}, false
}

// DefaultGroups returns the built-in extraction rules.
// Examples of what they catch:
//
//	remixers:          "Bar (Foo Remix)", "Bar [Foo Edit]", "Bar - Foo Flip"
//	qualifiers:        "Bar (Live at Red Rocks)", "Bar [Bonus Track]"
//	featuredArtists:   "Bar (ft. Baz)", "Bar feat. Baz", "Foo, Baz" (artist only)
//	releaseQualifiers: "Album [Foo Deluxe]", "Album EP"
func DefaultGroups() []GroupDefinition {
	return []GroupDefinition{
		{
			Name: "remixers",
			Rules: []RuleDefinition{
				{Pattern: `(?i)\((?P<artist>[^)]+?) (?P<type>remix|edit|flip|version)\)`, Fields: []string{RawTitle}},
				{Pattern: `(?i)\[(?P<artist>[^\]]+?) (?P<type>remix|edit|flip|version)\]`, Fields: []string{RawTitle}},
				{Pattern: `(?i)- (?P<artist>.+?) (?P<type>remix|edit|flip|version)`, Fields: []string{RawTitle}},
			},
		},
		{
			Name: "qualifiers",
			Rules: []RuleDefinition{
				{Pattern: `(?i)\((?P<group>(?:live|bonus)[^)]*)\)`, Fields: []string{RawTitle}},
				{Pattern: `(?i)\[(?P<group>(?:live|bonus)[^\]]*)\]`, Fields: []string{RawTitle}},
			},
		},
		{
			Name: "featuredArtists",
			Rules: []RuleDefinition{
				{Pattern: `(?i)\(f(?:ea)?t. (?P<group>[^)]+?)\)`, Fields: []string{RawTitle, RawArtist, RawAlbum}},
				{Pattern: `(?i)\sf(?:ea)?t. (?P<group>.+)`, Fields: []string{RawTitle, RawArtist, RawAlbum}},
				{Pattern: `(?i)\[f(?:ea)?t. (?P<group>[^\]]+?)\]`, Fields: []string{RawTitle, RawArtist, RawAlbum}},
				{Pattern: `, (?P<group>[^a-z][^,]*)`, Fields: []string{RawArtist}},
			},
		},
		{
			Name: "releaseQualifiers",
			Rules: []RuleDefinition{
				{Pattern: `(?i)\[(?P<group>[^\]]+?) (?:ep|deluxe|remaster|re-release|edition|version)\]`, Fields: []string{RawAlbum}},
				{Pattern: `(?i)(?P<group> (?:ep|deluxe|remaster|re-release|edition|version|mix))\b`, Fields: []string{RawAlbum}},
			},
		},
	}
}
