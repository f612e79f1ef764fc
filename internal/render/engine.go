package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/franz/tag-enforcer/internal/meta"
	"github.com/franz/tag-enforcer/internal/util"
)

// Template syntax
//
//	Raw string:      ${field}                   ${field*mod}
//	List:            ${list|()}                 ${list.sub @.sub2*mod|[]}
//	Bare list:       ${list|,}
//	Conditional:     ${field?content}           ${field?} (the field itself)
//	User input:      ${field%choice^list.sub%fallback}
//
// Directives are resolved in that order, one kind per pass. A pass sees the
// output of earlier passes, which is how ${a?${b}} works: ${b} is already
// substituted when the conditional pass runs. Values taken from the record
// are shielded until the last pass, so a title containing "${...}" is
// printed as-is and never evaluated.
var (
	singletonPattern   = regexp.MustCompile(`\$\{([^}\s@|?%]+?)\}`)
	listPattern        = regexp.MustCompile(`\$\{([^{}?|%]+?)\|(.)(.)\}`)
	bareListPattern    = regexp.MustCompile(`\$\{(\w+?)\|(.)\}`)
	conditionalPattern = regexp.MustCompile(`\$\{(\w+?)\?([^}]*?)\}`)
	inputPattern       = regexp.MustCompile(`\$\{(\w+?)%([\w^.]+?)%(\w+?)\}`)
)

// Directive delimiters inside substituted values are swapped for
// private-use runes while passes run
var (
	shield   = strings.NewReplacer("$", "\uE000", "{", "\uE001", "}", "\uE002")
	unshield = strings.NewReplacer("\uE000", "$", "\uE001", "{", "\uE002", "}")
)

// ManualOverride is appended to every list of choices; picking it asks for
// free text instead
const ManualOverride = "Edit by hand"

// Options configures an Engine
type Options struct {
	Cache     ChoiceCache
	Prompter  Prompter
	Quiet     bool // never prompt; fail with util.ErrInputRequired instead
	Modifiers Modifiers
}

// Engine renders templates against SongInfo records.
// An Engine is not safe for concurrent use: it shares one cache and one
// prompter between renders.
type Engine struct {
	cache     ChoiceCache
	prompter  Prompter
	quiet     bool
	modifiers Modifiers
}

// New creates an Engine; a nil cache becomes an in-memory one
func New(opts Options) *Engine {
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	if opts.Modifiers == nil {
		opts.Modifiers = DefaultModifiers()
	}
	return &Engine{
		cache:     opts.Cache,
		prompter:  opts.Prompter,
		quiet:     opts.Quiet,
		modifiers: opts.Modifiers,
	}
}

// Render resolves every directive in tmpl. info is never modified.
func (e *Engine) Render(tmpl string, info *meta.SongInfo) (string, error) {
	return e.render("", tmpl, info)
}

type pass func(r *run, s string) (string, error)

var passes = []pass{
	(*run).singletons,
	(*run).lists,
	(*run).bareLists,
	(*run).conditionals,
	(*run).inputs,
}

// run carries the state of one Render call
type run struct {
	*Engine
	name string
	info *meta.SongInfo
}

func (e *Engine) render(name, tmpl string, info *meta.SongInfo) (string, error) {
	if info == nil {
		info = &meta.SongInfo{}
	}
	r := &run{Engine: e, name: name, info: info}

	out := tmpl
	for _, p := range passes {
		var err error
		if out, err = p(r, out); err != nil {
			return "", err
		}
	}
	return unshield.Replace(out), nil
}

// RenderTags renders every template once and returns the results keyed by
// tagMap[name] (or name when unmapped). Empty results are left out.
func (e *Engine) RenderTags(templates, tagMap map[string]string, info *meta.SongInfo) (map[string]string, error) {
	tags := make(map[string]string)
	for _, name := range TemplateOrder(templates) {
		value, err := e.render(name, templates[name], info)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		if value == "" {
			continue
		}
		key := name
		if mapped, ok := tagMap[name]; ok && mapped != "" {
			key = mapped
		}
		tags[key] = value
	}
	return tags, nil
}

// RenderPath renders a file path template. The result is slash-separated,
// cleaned and always relative.
func (e *Engine) RenderPath(tmpl string, info *meta.SongInfo) (string, error) {
	rendered, err := e.render("path", tmpl, info)
	if err != nil {
		return "", fmt.Errorf("render path: %w", err)
	}
	cleaned := strings.TrimLeft(path.Clean("/"+rendered), "/")
	if cleaned == "" {
		return "", fmt.Errorf("render path: %w: template %q produced an empty path", util.ErrInvalidConfig, tmpl)
	}
	return cleaned, nil
}

// DefaultTagOrder is the order templates are rendered in, so prompts appear
// in a predictable sequence. Unknown names follow in lexical order.
var DefaultTagOrder = []string{
	"title", "artist", "albumArtist", "album", "genre", "track", "disc", "releaseDate", "year",
}

// TemplateOrder returns the names of templates in render order
func TemplateOrder(templates map[string]string) []string {
	names := make([]string, 0, len(templates))
	known := make(map[string]bool)
	for _, name := range DefaultTagOrder {
		known[name] = true
		if _, ok := templates[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range templates {
		if !known[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// replaceAll substitutes every match of re in s with fn's result.
// Replacements are not rescanned.
func replaceAll(re *regexp.Regexp, s string, fn func(groups []string) (string, error)) (string, error) {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = s[m[2*i]:m[2*i+1]]
			}
		}
		replacement, err := fn(groups)
		if err != nil {
			return "", err
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(replacement)
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

func (r *run) modifier(symbol string) (Modifier, error) {
	if symbol == "" {
		return func(s string) string { return s }, nil
	}
	mod, ok := r.modifiers[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", util.ErrUnknownModifier, symbol)
	}
	return mod, nil
}

// apply runs a modifier on non-empty values only
func apply(mod Modifier, s string) string {
	if s == "" {
		return ""
	}
	return mod(s)
}

// ${field} and ${field*mod}
func (r *run) singletons(s string) (string, error) {
	return replaceAll(singletonPattern, s, func(g []string) (string, error) {
		field, symbol, _ := strings.Cut(g[1], "*")
		mod, err := r.modifier(symbol)
		if err != nil {
			return "", err
		}
		v, ok := r.info.Lookup(field)
		if !ok {
			return "", nil
		}
		if v.Kind == meta.KindList {
			return "", fmt.Errorf("%w: ${%s} names list %q", util.ErrTypeMismatch, g[1], field)
		}
		return shield.Replace(apply(mod, v.Scalar)), nil
	})
}

// ${list|oc}, ${list*mod|oc} and ${list.sub @.sub2*mod|oc}
func (r *run) lists(s string) (string, error) {
	return replaceAll(listPattern, s, func(g []string) (string, error) {
		spec, openChar, closeChar := g[1], g[2], g[3]
		parts := strings.Split(spec, " ")

		head, _, _ := strings.Cut(parts[0], ".")
		field, symbol, _ := strings.Cut(head, "*")
		itemMod, err := r.modifier(symbol)
		if err != nil {
			return "", err
		}

		type projection struct {
			name string
			mod  Modifier
		}
		var projections []projection
		for _, part := range parts {
			_, sub, found := strings.Cut(part, ".")
			if !found || sub == "" {
				continue
			}
			name, subSymbol, _ := strings.Cut(sub, "*")
			mod, err := r.modifier(subSymbol)
			if err != nil {
				return "", err
			}
			projections = append(projections, projection{name: name, mod: mod})
		}

		items, err := r.listValue(field, spec)
		if err != nil {
			return "", err
		}

		wrapped := make([]string, 0, len(items))
		for _, item := range items {
			var content string
			if len(projections) > 0 {
				values := make([]string, 0, len(projections))
				for _, p := range projections {
					if v := apply(p.mod, item.Get(p.name)); v != "" {
						values = append(values, v)
					}
				}
				content = strings.Join(values, " ")
			} else {
				content = apply(itemMod, item.String())
			}
			wrapped = append(wrapped, openChar+shield.Replace(content)+closeChar)
		}
		return strings.Join(wrapped, " "), nil
	})
}

// ${list|sep}
func (r *run) bareLists(s string) (string, error) {
	return replaceAll(bareListPattern, s, func(g []string) (string, error) {
		field, sep := g[1], g[2]
		items, err := r.listValue(field, g[1]+"|"+sep)
		if err != nil {
			return "", err
		}
		values := make([]string, len(items))
		for i, item := range items {
			values[i] = item.String()
		}
		return shield.Replace(strings.Join(values, sep+" ")), nil
	})
}

// ${field?content}; an empty content stands for the field's own value
func (r *run) conditionals(s string) (string, error) {
	return replaceAll(conditionalPattern, s, func(g []string) (string, error) {
		field, content := g[1], g[2]
		if !r.info.Exists(field) {
			return "", nil
		}
		if content == "" {
			return shield.Replace(r.plainValue(field)), nil
		}
		return content, nil
	})
}

// ${condition%choices%fallback}
func (r *run) inputs(s string) (string, error) {
	return replaceAll(inputPattern, s, func(g []string) (string, error) {
		condition, choiceSpec, fallback := g[1], g[2], g[3]
		if !r.info.Exists(condition) {
			return shield.Replace(r.plainValue(fallback)), nil
		}

		key := ChoiceKey(r.info.ReleaseTitle, condition, choiceSpec, fallback)
		if prev, ok := r.cache.Get(key); ok {
			return shield.Replace(prev), nil
		}
		if r.quiet || r.prompter == nil {
			return "", fmt.Errorf("%w: %s for %q", util.ErrInputRequired, g[0], r.info.ReleaseTitle)
		}

		choice, err := r.ask(fallback, r.choices(choiceSpec))
		if err != nil {
			return "", err
		}
		if err := r.cache.Set(key, choice); err != nil {
			util.WarnLog("Failed to remember choice for %q: %v", r.info.ReleaseTitle, err)
		}
		return shield.Replace(choice), nil
	})
}

func (r *run) ask(fallback string, options []string) (string, error) {
	subject := r.name
	if subject == "" {
		subject = fallback
	}

	choice, err := r.prompter.ChooseOne(
		fmt.Sprintf("What should we use for %s on %q?", subject, r.info.ReleaseTitle),
		append(options, ManualOverride),
	)
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	if choice == ManualOverride {
		choice, err = r.prompter.FreeText(fmt.Sprintf("Enter %s: ", subject))
		if err != nil {
			return "", fmt.Errorf("prompt: %w", err)
		}
	}
	return choice, nil
}

// choices flattens a ^-separated list of field references into one list of
// candidates. Empty values are dropped and a value offered by several
// references is listed once, at its first position.
func (r *run) choices(spec string) []string {
	var options []string
	seen := make(map[string]bool)
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		options = append(options, v)
	}

	for _, ref := range strings.Split(spec, "^") {
		field, sub, _ := strings.Cut(ref, ".")
		v, ok := r.info.Lookup(field)
		if !ok {
			continue
		}
		if v.Kind == meta.KindScalar {
			if sub == "" {
				add(v.Scalar)
			}
			continue
		}
		for _, item := range v.List {
			if sub != "" {
				add(item.Get(sub))
			} else {
				add(item.String())
			}
		}
	}
	return options
}

// listValue resolves field as a list; absent fields are empty lists
func (r *run) listValue(field, directive string) ([]meta.Item, error) {
	v, ok := r.info.Lookup(field)
	if !ok {
		return nil, nil
	}
	if v.Kind != meta.KindList {
		return nil, fmt.Errorf("%w: ${%s} names scalar %q", util.ErrTypeMismatch, directive, field)
	}
	return v.List, nil
}

// plainValue renders any attribute as text; lists are comma-joined
func (r *run) plainValue(field string) string {
	v, ok := r.info.Lookup(field)
	if !ok {
		return ""
	}
	if v.Kind == meta.KindScalar {
		return v.Scalar
	}
	values := make([]string, len(v.List))
	for i, item := range v.List {
		values[i] = item.String()
	}
	return strings.Join(values, ", ")
}

// ChoiceKey is the cache key for an interactive directive. The release title
// is JSON-quoted so keys match caches written by earlier versions of the tool.
func ChoiceKey(releaseTitle, condition, choiceSpec, fallback string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(releaseTitle)
	quoted := strings.TrimSuffix(buf.String(), "\n")
	return util.HashKey(quoted + condition + choiceSpec + fallback)
}
