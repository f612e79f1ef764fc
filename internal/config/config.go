// Package config holds the enforcer configuration model, its defaults and
// where it lives on disk
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/franz/tag-enforcer/internal/meta"
	"github.com/franz/tag-enforcer/internal/render"
	"github.com/franz/tag-enforcer/internal/util"
)

// Config is the decoded configuration
type Config struct {
	LibraryRoot      string                 `mapstructure:"library_root"`
	Limit            int                    `mapstructure:"limit"`
	Extension        string                 `mapstructure:"extension"`
	DB               string                 `mapstructure:"db"`
	NetworkOptimized bool                   `mapstructure:"network_optimized"`
	Patterns         []meta.GroupDefinition `mapstructure:"patterns"`
	Templates        map[string]string      `mapstructure:"templates"`
	TagMap           map[string]string      `mapstructure:"tag_map"`
	FilePath         string                 `mapstructure:"file_path"`
}

// DefaultLimit is the number of files changed per run unless configured
const DefaultLimit = 50

// DefaultTemplates render each logical tag
func DefaultTemplates() map[string]string {
	return map[string]string{
		"title":       "${title}${remixers? }${remixers.artist @.type*^|()}${qualifiers? }${qualifiers*^|[]}",
		"artist":      "${artist}${featuredArtists? (ft. }${featuredArtists|,}${featuredArtists?)}",
		"albumArtist": "${remixers%artist^remixers.artist%artist}",
		"album":       "${releaseTitle}",
		"genre":       "${genre}",
		"disc":        "${discNumber}${discTotal?/}${discTotal?}",
		"track":       "${trackNumber}${trackTotal?/}${trackTotal?${trackTotal}}",
		"releaseDate": "${releaseDate?${releaseDate}}",
		"year":        "${year}",
	}
}

// DefaultTagMap maps logical tags to the raw tag keys they are written to
func DefaultTagMap() map[string]string {
	return map[string]string{
		"title":       meta.RawTitle,
		"artist":      meta.RawArtist,
		"albumArtist": meta.RawAlbumArtist,
		"album":       meta.RawAlbum,
		"genre":       meta.RawGenre,
		"track":       meta.RawTrack,
		"disc":        meta.RawDisc,
		"year":        meta.RawYear,
		"releaseDate": meta.RawOriginalReleaseTime,
	}
}

// DefaultFilePath is the path template, relative to the library root and
// without extension
const DefaultFilePath = "${artist}/${releaseTitle}/${trackNumber*0} ${title}${remixers? }${remixers.artist @.type*^|()}${qualifiers? }${qualifiers*^|[]}"

// SetDefaults registers every default on v. User values are merged over
// them key by key; the pattern list is replaced as a whole.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("library_root", "")
	v.SetDefault("limit", DefaultLimit)
	v.SetDefault("extension", ".mp3")
	v.SetDefault("db", "")
	v.SetDefault("network_optimized", false)
	v.SetDefault("patterns", patternsToMaps(meta.DefaultGroups()))
	v.SetDefault("templates", DefaultTemplates())
	v.SetDefault("tag_map", DefaultTagMap())
	v.SetDefault("file_path", DefaultFilePath)
}

// patternsToMaps gives viper plain values it can write back out as YAML
func patternsToMaps(groups []meta.GroupDefinition) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		rules := make([]map[string]interface{}, 0, len(g.Rules))
		for _, r := range g.Rules {
			rules = append(rules, map[string]interface{}{
				"pattern": r.Pattern,
				"fields":  r.Fields,
			})
		}
		out = append(out, map[string]interface{}{"name": g.Name, "rules": rules})
	}
	return out
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}

	// viper folds keys to lower case
	cfg.Templates = canonicalKeys(cfg.Templates)
	cfg.TagMap = canonicalKeys(cfg.TagMap)

	if cfg.LibraryRoot != "" {
		abs, err := filepath.Abs(cfg.LibraryRoot)
		if err != nil {
			return nil, fmt.Errorf("%w: library_root: %v", util.ErrInvalidConfig, err)
		}
		cfg.LibraryRoot = abs
	}

	if cfg.Extension != "" && !strings.HasPrefix(cfg.Extension, ".") {
		cfg.Extension = "." + cfg.Extension
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// canonicalKeys restores the case of known tag names
func canonicalKeys(m map[string]string) map[string]string {
	known := make(map[string]string)
	for _, name := range render.DefaultTagOrder {
		known[strings.ToLower(name)] = name
	}

	out := make(map[string]string, len(m))
	for k, v := range m {
		if name, ok := known[strings.ToLower(k)]; ok {
			k = name
		}
		out[k] = v
	}
	return out
}

// Validate checks what can be checked without touching files
func (c *Config) Validate() error {
	if c.Limit < 0 {
		c.Limit = 0
	}
	if len(c.Templates) == 0 {
		return fmt.Errorf("%w: no templates configured", util.ErrInvalidConfig)
	}
	if _, err := c.Library(); err != nil {
		return err
	}
	return nil
}

// Library compiles the configured pattern groups
func (c *Config) Library() (*meta.Library, error) {
	return meta.NewLibrary(c.Patterns)
}
