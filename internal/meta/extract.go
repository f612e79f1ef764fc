package meta

import (
	"sort"
	"strings"
)

// Item is one entry of a list attribute. Rules with a primary capture yield
// plain items (Value); other rules yield structured items (Fields) keyed by
// capture name, e.g. {artist, type} for remixers.
type Item struct {
	Value  string            `json:"value,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Text builds a plain item
func Text(s string) Item {
	return Item{Value: s}
}

// Structured builds an item from named subfields
func Structured(fields map[string]string) Item {
	return Item{Fields: fields}
}

// IsStructured reports whether the item carries named subfields
func (i Item) IsStructured() bool {
	return i.Fields != nil
}

// Get returns a subfield; plain items have none
func (i Item) Get(name string) string {
	return i.Fields[name]
}

// String renders plain items as-is and structured items as their subfield
// values in capture-name order
func (i Item) String() string {
	if !i.IsStructured() {
		return i.Value
	}
	names := make([]string, 0, len(i.Fields))
	for name := range i.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([]string, 0, len(names))
	for _, name := range names {
		if v := i.Fields[name]; v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, " ")
}

func (i Item) key() string {
	if !i.IsStructured() {
		return "v\x00" + i.Value
	}
	names := make([]string, 0, len(i.Fields))
	for name := range i.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("f")
	for _, name := range names {
		b.WriteString("\x00" + name + "\x01" + i.Fields[name])
	}
	return b.String()
}

// ExtractGroup runs every rule of the group over each raw field the rule
// declares and returns the matches deduplicated in first-seen order.
// A rule that does not match contributes nothing.
func ExtractGroup(group PatternGroup, raw RawTags) []Item {
	items := make([]Item, 0)
	seen := make(map[string]bool)

	for _, rule := range group.Rules {
		for _, field := range rule.Fields {
			for _, item := range searchField(raw[field], rule) {
				k := item.key()
				if seen[k] {
					continue
				}
				seen[k] = true
				items = append(items, item)
			}
		}
	}

	return items
}

// searchField collects one item per match of rule in value. A match whose
// primary capture is empty falls back to its other named captures.
func searchField(value string, rule PatternRule) []Item {
	if value == "" {
		return nil
	}

	names := rule.Matcher.SubexpNames()
	primary := rule.Matcher.SubexpIndex(PrimaryGroup)

	var items []Item
	for _, match := range rule.Matcher.FindAllStringSubmatch(value, -1) {
		if primary >= 0 {
			if v := strings.TrimSpace(match[primary]); v != "" {
				items = append(items, Text(v))
				continue
			}
		}

		fields := make(map[string]string)
		for i, name := range names {
			if i == 0 || name == "" || i == primary {
				continue
			}
			fields[name] = strings.TrimSpace(match[i])
		}
		if len(fields) == 0 {
			continue
		}
		items = append(items, Structured(fields))
	}
	return items
}
