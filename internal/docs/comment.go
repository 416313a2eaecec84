package docs

import (
	"strings"
	"unicode"
)

// Tag is a single structured comment tag such as `@module CacheModule`.
type Tag struct {
	TagName     string `json:"tagName"`
	Description string `json:"description,omitempty"`
}

// Tags is the ordered list of tags found in a comment.
type Tags []Tag

// Find returns the first tag with the given name.
func (t Tags) Find(name string) (Tag, bool) {
	for _, tag := range t {
		if tag.TagName == name {
			return tag, true
		}
	}
	return Tag{}, false
}

// All returns every tag with the given name in comment order.
func (t Tags) All(name string) []Tag {
	var out []Tag
	for _, tag := range t {
		if tag.TagName == name {
			out = append(out, tag)
		}
	}
	return out
}

// ParseComment splits a JSDoc block into its free-text description and its
// tags. The leading `/**`, trailing `*/` and per-line `*` gutters are
// stripped. A `@description` tag overrides the free-text description.
func ParseComment(raw string) (string, Tags) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "/**")
	body = strings.TrimPrefix(body, "/*")
	body = strings.TrimSuffix(body, "*/")

	var desc []string
	var tags Tags
	inTags := false
	inFence := false

	for _, line := range strings.Split(body, "\n") {
		line = stripGutter(line)
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}

		if !inFence && strings.HasPrefix(trimmed, "@") {
			name, rest := splitTagName(trimmed[1:])
			tags = append(tags, Tag{TagName: name, Description: strings.TrimSpace(rest)})
			inTags = true
			continue
		}

		if inTags {
			last := &tags[len(tags)-1]
			if last.Description == "" {
				last.Description = trimmed
			} else {
				last.Description += "\n" + line
			}
			continue
		}
		desc = append(desc, line)
	}

	for i := range tags {
		tags[i].Description = strings.TrimSpace(tags[i].Description)
	}

	description := strings.TrimSpace(dedent(desc))
	if tag, ok := tags.Find("description"); ok {
		description = tag.Description
	}
	return description, tags
}

func stripGutter(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "*") {
		trimmed = trimmed[1:]
		// one space after the gutter belongs to it
		return strings.TrimPrefix(trimmed, " ")
	}
	return line
}

// dedent removes the indentation shared by every non-blank line.
func dedent(lines []string) string {
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || indent < common {
			common = indent
		}
	}
	if common > 0 {
		for i, line := range lines {
			if len(line) >= common {
				lines[i] = line[common:]
			}
		}
	}
	return strings.Join(lines, "\n")
}

// splitTagName splits "name rest" at the first whitespace rune.
func splitTagName(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
