package meta

// ScrubField removes every substring matched by any rule that reads
// fieldName, applying groups in order and rules in order within a group,
// and returns the cleaned value. value itself is never modified.
//
// Re-scrubbing a scrubbed value is a no-op as long as no rule matches text
// that its own removal leaves behind.
func ScrubField(value, fieldName string, groups []PatternGroup) string {
	result := value
	for _, group := range groups {
		for _, rule := range group.Rules {
			if !rule.AppliesTo(fieldName) {
				continue
			}
			result = rule.Matcher.ReplaceAllString(result, "")
		}
	}
	return CleanString(result)
}

// Scrub is ScrubField over every group in the library
func (l *Library) Scrub(value, fieldName string) string {
	return ScrubField(value, fieldName, l.groups)
}

// Extract runs the named group over raw; unknown groups yield nothing
func (l *Library) Extract(name string, raw RawTags) []Item {
	group, ok := l.Group(name)
	if !ok {
		return []Item{}
	}
	return ExtractGroup(group, raw)
}
