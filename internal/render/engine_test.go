package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/tag-enforcer/internal/meta"
	"github.com/franz/tag-enforcer/internal/util"
)

type fakePrompter struct {
	choice   string
	text     string
	err      error
	chooses  int
	texts    int
	messages []string
	options  [][]string
}

func (p *fakePrompter) Confirm(message string) (bool, error) {
	p.messages = append(p.messages, message)
	return true, p.err
}

func (p *fakePrompter) FreeText(message string) (string, error) {
	p.texts++
	p.messages = append(p.messages, message)
	return p.text, p.err
}

func (p *fakePrompter) ChooseOne(message string, options []string) (string, error) {
	p.chooses++
	p.messages = append(p.messages, message)
	p.options = append(p.options, options)
	if p.choice == "" && len(options) > 0 {
		return options[0], p.err
	}
	return p.choice, p.err
}

func (p *fakePrompter) calls() int {
	return p.chooses + p.texts
}

type countingCache struct {
	*MemoryCache
	gets, sets int
	setErr     error
}

func newCountingCache() *countingCache {
	return &countingCache{MemoryCache: NewMemoryCache()}
}

func (c *countingCache) Get(key string) (string, bool) {
	c.gets++
	return c.MemoryCache.Get(key)
}

func (c *countingCache) Set(key, value string) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	return c.MemoryCache.Set(key, value)
}

func texts(values ...string) []meta.Item {
	items := make([]meta.Item, len(values))
	for i, v := range values {
		items[i] = meta.Text(v)
	}
	return items
}

func TestRender_Directives(t *testing.T) {
	info := &meta.SongInfo{
		Title:       "Foo",
		Artist:      "the artist",
		TrackNumber: "5",
		DiscNumber:  "12",
		Lists: map[string][]meta.Item{
			"remixers": {
				meta.Structured(map[string]string{"artist": "DJ X", "type": "remix"}),
			},
			"featuredArtists": texts("A", "B"),
			"qualifiers":      {},
		},
	}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"no directives", "plain text {not} $ {a}", "plain text {not} $ {a}"},
		{"singleton", "${title}", "Foo"},
		{"singleton in text", "[${title}] by ${artist}", "[Foo] by the artist"},
		{"title case modifier", "${artist*^}", "The Artist"},
		{"zero pad short", "${trackNumber*0}", "05"},
		{"zero pad long", "${discNumber*0}", "12"},
		{"upper", "${title*>}", "FOO"},
		{"missing field is empty", "${nope}x", "x"},
		{"empty scalar with modifier", "${trackTotal*0}", ""},
		{"projected list", "${remixers.artist @.type|()}", "(DJ X remix)"},
		{"projected list with modifier", "${remixers.artist @.type*^|()}", "(DJ X Remix)"},
		{"bracketed plain list", "${featuredArtists|[]}", "[A] [B]"},
		{"bracketed list modifier", "${featuredArtists*<|()}", "(a) (b)"},
		{"empty list", "${qualifiers|[]}", ""},
		{"bare list", "${featuredArtists|,}", "A, B"},
		{"conditional empty list", "${qualifiers?Live}", ""},
		{"conditional list", "${featuredArtists?Live}", "Live"},
		{"conditional scalar", "${title?yes}", "yes"},
		{"conditional empty scalar", "${genre?yes}", ""},
		{"conditional own value", "${title?}", "Foo"},
		{"conditional own list", "${featuredArtists?}", "A, B"},
		{"conditional wraps singleton", "${featuredArtists?feat. ${artist}}", "feat. the artist"},
	}

	e := New(Options{Quiet: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(tt.tmpl, info)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_QualifiersToggle(t *testing.T) {
	e := New(Options{Quiet: true})

	empty := &meta.SongInfo{Lists: map[string][]meta.Item{"qualifiers": {}}}
	got, err := e.Render("${qualifiers?Live}", empty)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	some := &meta.SongInfo{Lists: map[string][]meta.Item{"qualifiers": texts("anything")}}
	got, err = e.Render("${qualifiers?Live}", some)
	require.NoError(t, err)
	assert.Equal(t, "Live", got)
}

func TestRender_Errors(t *testing.T) {
	info := &meta.SongInfo{
		Title: "Foo",
		Lists: map[string][]meta.Item{"featuredArtists": texts("A")},
	}

	tests := []struct {
		name string
		tmpl string
		want error
	}{
		{"list in singleton", "${featuredArtists}", util.ErrTypeMismatch},
		{"scalar in bracketed list", "${title|()}", util.ErrTypeMismatch},
		{"scalar in bare list", "${title|,}", util.ErrTypeMismatch},
		{"unknown modifier", "${title*!}", util.ErrUnknownModifier},
		{"unknown subfield modifier", "${featuredArtists.x @.y*!|()}", util.ErrUnknownModifier},
	}

	e := New(Options{Quiet: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Render(tt.tmpl, info)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRender_DoesNotModifyRecord(t *testing.T) {
	info := &meta.SongInfo{
		Title:        "Foo",
		ReleaseTitle: "Album",
		Lists:        map[string][]meta.Item{"featuredArtists": texts("A")},
	}
	e := New(Options{Quiet: true})

	_, err := e.Render("${title*>}${featuredArtists*>|()}${featuredArtists%featuredArtists%title}", info)
	require.Error(t, err)
	assert.Equal(t, "Foo", info.Title)
	assert.Equal(t, "A", info.Lists["featuredArtists"][0].Value)
}

func TestRender_InputFallback(t *testing.T) {
	info := &meta.SongInfo{
		Artist: "Main",
		Lists:  map[string][]meta.Item{"featuredArtists": {}},
	}
	cache := newCountingCache()
	prompter := &fakePrompter{}
	e := New(Options{Cache: cache, Prompter: prompter})

	got, err := e.Render("${featuredArtists%featuredArtists^artist%artist}", info)
	require.NoError(t, err)
	assert.Equal(t, "Main", got)
	assert.Zero(t, cache.gets+cache.sets)
	assert.Zero(t, prompter.calls())

	got, err = e.Render("${featuredArtists%artist%albumArtist}", info)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRender_InputCached(t *testing.T) {
	info := &meta.SongInfo{
		Artist:       "Main",
		ReleaseTitle: "Album",
		Lists:        map[string][]meta.Item{"featuredArtists": texts("Guest")},
	}
	cache := newCountingCache()
	require.NoError(t, cache.MemoryCache.Set(ChoiceKey("Album", "featuredArtists", "artist^featuredArtists", "artist"), "Remembered"))
	prompter := &fakePrompter{}
	e := New(Options{Cache: cache, Prompter: prompter})

	got, err := e.Render("${featuredArtists%artist^featuredArtists%artist}", info)
	require.NoError(t, err)
	assert.Equal(t, "Remembered", got)
	assert.Zero(t, prompter.calls())
	assert.Zero(t, cache.sets)
}

func TestRender_InputQuiet(t *testing.T) {
	info := &meta.SongInfo{
		ReleaseTitle: "Album",
		Lists:        map[string][]meta.Item{"featuredArtists": texts("Guest")},
	}

	for _, opts := range []Options{{Quiet: true, Prompter: &fakePrompter{}}, {}} {
		e := New(opts)
		_, err := e.Render("${featuredArtists%featuredArtists%artist}", info)
		require.Error(t, err)
		assert.ErrorIs(t, err, util.ErrInputRequired)
	}
}

func TestRender_InputPrompts(t *testing.T) {
	info := &meta.SongInfo{
		Artist:       "Main",
		ReleaseTitle: "Album",
		Lists: map[string][]meta.Item{
			"featuredArtists": texts("Guest", "Main"),
			"remixers": {
				meta.Structured(map[string]string{"artist": "DJ X", "type": "Remix"}),
			},
		},
	}
	cache := newCountingCache()
	prompter := &fakePrompter{choice: "Guest"}
	e := New(Options{Cache: cache, Prompter: prompter})

	tmpl := "${featuredArtists%artist^featuredArtists^remixers.artist%artist}"
	got, err := e.Render(tmpl, info)
	require.NoError(t, err)
	assert.Equal(t, "Guest", got)
	require.Len(t, prompter.options, 1)
	assert.Equal(t, []string{"Main", "Guest", "DJ X", ManualOverride}, prompter.options[0])
	assert.Contains(t, prompter.messages[0], `"Album"`)

	// second render is answered from the cache
	got, err = e.Render(tmpl, info)
	require.NoError(t, err)
	assert.Equal(t, "Guest", got)
	assert.Equal(t, 1, prompter.chooses)
	assert.Equal(t, 1, cache.sets)
}

func TestRender_InputManualOverride(t *testing.T) {
	info := &meta.SongInfo{
		ReleaseTitle: "Album",
		Lists:        map[string][]meta.Item{"featuredArtists": texts("Guest")},
	}
	cache := newCountingCache()
	prompter := &fakePrompter{choice: ManualOverride, text: "Typed"}
	e := New(Options{Cache: cache, Prompter: prompter})

	got, err := e.Render("${featuredArtists%featuredArtists%artist}", info)
	require.NoError(t, err)
	assert.Equal(t, "Typed", got)
	assert.Equal(t, 1, prompter.texts)

	v, ok := cache.MemoryCache.Get(ChoiceKey("Album", "featuredArtists", "featuredArtists", "artist"))
	require.True(t, ok)
	assert.Equal(t, "Typed", v)
}

func TestRender_InputCacheWriteFailure(t *testing.T) {
	info := &meta.SongInfo{Lists: map[string][]meta.Item{"featuredArtists": texts("Guest")}}
	cache := newCountingCache()
	cache.setErr = errors.New("disk full")
	e := New(Options{Cache: cache, Prompter: &fakePrompter{}})

	got, err := e.Render("${featuredArtists%featuredArtists%artist}", info)
	require.NoError(t, err)
	assert.Equal(t, "Guest", got)
}

func TestRender_PromptError(t *testing.T) {
	info := &meta.SongInfo{Lists: map[string][]meta.Item{"featuredArtists": texts("Guest")}}
	cache := newCountingCache()
	e := New(Options{Cache: cache, Prompter: &fakePrompter{err: errors.New("eof")}})

	_, err := e.Render("${featuredArtists%featuredArtists%artist}", info)
	require.Error(t, err)
	assert.Zero(t, cache.sets)
}

func TestChoiceKey(t *testing.T) {
	// sha1(`"Album"featuredArtistsartist^featuredArtistsartist`)
	k1 := ChoiceKey("Album", "featuredArtists", "artist^featuredArtists", "artist")
	assert.Len(t, k1, 40)
	assert.Equal(t, util.HashKey(`"Album"featuredArtistsartist^featuredArtistsartist`), k1)

	assert.NotEqual(t, k1, ChoiceKey("Other", "featuredArtists", "artist^featuredArtists", "artist"))
	assert.Equal(t, util.HashKey(`"A & \"B\""xyz`), ChoiceKey(`A & "B"`, "x", "y", "z"))
}

func TestRender_EndToEnd(t *testing.T) {
	lib := meta.MustLibrary(meta.DefaultGroups())
	info := meta.NewBuilder(lib).Build(meta.RawTags{meta.RawTitle: "Song (DJ X Remix)"})

	require.Equal(t, "Song", info.Title)
	require.Equal(t, []meta.Item{
		meta.Structured(map[string]string{"artist": "DJ X", "type": "Remix"}),
	}, info.Lists["remixers"])

	e := New(Options{Quiet: true})
	got, err := e.Render("${title}${remixers? }${remixers.artist @.type*^|()}", info)
	require.NoError(t, err)
	assert.Equal(t, "Song (DJ X Remix)", got)
}

func TestRenderTags(t *testing.T) {
	info := &meta.SongInfo{Title: "Foo", Artist: "Bar", TrackNumber: "3"}
	templates := map[string]string{
		"title":   "${title}",
		"artist":  "${artist}",
		"track":   "${trackNumber}",
		"genre":   "${genre}",
		"comment": "made by ${artist}",
	}
	tagMap := map[string]string{"title": "title", "track": "trackNumber", "artist": "artist"}

	e := New(Options{Quiet: true})
	got, err := e.RenderTags(templates, tagMap, info)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"title":       "Foo",
		"artist":      "Bar",
		"trackNumber": "3",
		"comment":     "made by Bar",
	}, got)
}

func TestRenderTags_Error(t *testing.T) {
	info := &meta.SongInfo{Lists: map[string][]meta.Item{"featuredArtists": texts("A")}}
	e := New(Options{Quiet: true})

	_, err := e.RenderTags(map[string]string{"artist": "${featuredArtists}"}, nil, info)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "render artist")
}

func TestTemplateOrder(t *testing.T) {
	got := TemplateOrder(map[string]string{
		"zeta": "", "year": "", "title": "", "alpha": "", "artist": "",
	})
	assert.Equal(t, []string{"title", "artist", "year", "alpha", "zeta"}, got)
}

func TestRenderPath(t *testing.T) {
	info := &meta.SongInfo{Artist: "AC/DC", ReleaseTitle: "Album", Title: "Song", TrackNumber: "1"}
	e := New(Options{Quiet: true})

	tests := []struct {
		tmpl string
		want string
	}{
		{"${artist*~}/${releaseTitle}/${trackNumber*0} ${title}", "AC-DC/Album/01 Song"},
		{"/${releaseTitle}//${title}", "Album/Song"},
		{"../../${title}", "Song"},
	}
	for _, tt := range tests {
		got, err := e.RenderPath(tt.tmpl, info)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.tmpl)
	}

	_, err := e.RenderPath("${genre}", info)
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}

func TestModifiers_With(t *testing.T) {
	base := DefaultModifiers()
	extended := base.With(Modifiers{"!": func(s string) string { return s + "!" }})

	e := New(Options{Quiet: true, Modifiers: extended})
	got, err := e.Render("${title*!}", &meta.SongInfo{Title: "hey"})
	require.NoError(t, err)
	assert.Equal(t, "hey!", got)

	_, ok := base["!"]
	assert.False(t, ok)
}

func TestRender_RecordValuesAreNotEvaluated(t *testing.T) {
	directives := []string{
		"${artist}",
		"${featuredArtists|[]}",
		"${featuredArtists|,}",
		"${featuredArtists?yes}",
		"${featuredArtists%featuredArtists%artist}",
	}

	for _, d := range directives {
		t.Run(d, func(t *testing.T) {
			info := &meta.SongInfo{
				Title:        "Cover " + d,
				Artist:       "Main",
				ReleaseTitle: "Album " + d,
				Lists: map[string][]meta.Item{
					"featuredArtists": texts("A", "B"),
					"qualifiers":      texts("Live " + d),
				},
			}
			p := &fakePrompter{}
			e := New(Options{Prompter: p, Quiet: true})

			tests := []struct {
				tmpl string
				want string
			}{
				{"${title}", "Cover " + d},
				{"${title*^}", meta.TitleCase("Cover " + d)},
				{"${qualifiers|[]}", "[Live " + d + "]"},
				{"${qualifiers|,}", "Live " + d},
				{"${qualifiers?}", "Live " + d},
				{"${title?[${title}]}", "[Cover " + d + "]"},
				{"${nothing%featuredArtists%releaseTitle}", "Album " + d},
			}
			for _, tt := range tests {
				got, err := e.Render(tt.tmpl, info)
				require.NoError(t, err, tt.tmpl)
				assert.Equal(t, tt.want, got, tt.tmpl)
			}
			assert.Zero(t, p.calls())
		})
	}
}

func TestRender_ChosenValueIsNotEvaluated(t *testing.T) {
	info := &meta.SongInfo{
		ReleaseTitle: "Album",
		Lists:        map[string][]meta.Item{"featuredArtists": texts("A")},
	}
	p := &fakePrompter{choice: ManualOverride, text: "${featuredArtists|,}"}
	e := New(Options{Prompter: p})

	got, err := e.Render("${featuredArtists%featuredArtists%artist}", info)
	require.NoError(t, err)
	assert.Equal(t, "${featuredArtists|,}", got)

	// Cached answers come back literally too
	got, err = e.Render("${featuredArtists%featuredArtists%artist}", info)
	require.NoError(t, err)
	assert.Equal(t, "${featuredArtists|,}", got)
	assert.Equal(t, 2, p.calls())
}
