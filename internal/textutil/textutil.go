package textutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Lllllllleong/fanzineflow/internal/models"
)

// honorifics is the fixed set of prefixes stripped during normalization.
var honorifics = regexp.MustCompile(`(?i)^(Prof\.|Dr\.|Mr\.|Mrs\.|Ms\.|Miss)\s+`)

// NormalizeEntity strips a recognized honorific prefix and canonicalizes
// shouting-case names. It returns false when the input reduces to nothing.
func NormalizeEntity(raw string) (models.Entity, bool) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return models.Entity{}, false
	}

	prefix := ""
	if m := honorifics.FindString(clean); m != "" {
		prefix = m
		clean = honorifics.ReplaceAllString(clean, "")
	}

	if clean == "" {
		return models.Entity{}, false
	}

	if len(clean) > 3 && clean == strings.ToUpper(clean) && clean != strings.ToLower(clean) {
		clean = TitleCase(clean)
	}

	return models.Entity{Original: raw, Clean: clean, Prefix: prefix}, true
}

// TitleCase lower-cases the input and capitalizes the first letter of each
// space-separated word.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// capitalize upper-cases the first rune of a word.
func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

// ApplyWikilinks replaces every whole-word, case-insensitive occurrence of
// each entity's clean name with "prefix[[Clean]]". Entities are applied
// longest clean name first over the same growing string, so a shorter name
// that is a substring of an already-linked span does not re-match.
func ApplyWikilinks(text string, entities []models.Entity) string {
	if text == "" {
		return ""
	}

	sorted := make([]models.Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Clean) > len(sorted[j].Clean)
	})

	processed := text
	for _, ent := range sorted {
		if ent.Clean == "" {
			continue
		}
		pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(ent.Clean))
		if err != nil {
			continue
		}
		replacement := ent.Prefix + "[[" + ent.Clean + "]]"
		processed = replaceWholeWords(processed, pattern, replacement)
	}
	return processed
}

var wikilinkSpan = regexp.MustCompile(`\[\[.*?\]\]`)

// replaceWholeWords substitutes every match of pattern whose edges fall on
// word boundaries, skipping matches inside existing [[...]] links so a
// shorter name never nests into a longer one linked earlier. Boundaries are
// checked by rune class rather than the pattern's \b, which only understands
// ASCII and would skip names with accented first or last letters.
func replaceWholeWords(s string, pattern *regexp.Regexp, replacement string) string {
	matches := pattern.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	links := wikilinkSpan.FindAllStringIndex(s, -1)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if !boundaryBefore(s, m[0]) || !boundaryAfter(s, m[1]) || insideLink(links, m[0], m[1]) {
			continue
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(replacement)
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func insideLink(links [][]int, start, end int) bool {
	for _, sp := range links {
		if start < sp[1] && end > sp[0] {
			return true
		}
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i == len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// ParseError reports a response that could not be coerced into JSON. It
// records only the response length to keep log entries bounded.
type ParseError struct {
	RawLength int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to extract valid JSON from response (length: %d)", e.RawLength)
}

// ExtractJSON pulls a JSON object out of free-form model output. It tries a
// direct parse, then the substring between the first '{' and last '}', then
// strips markdown code fences.
func ExtractJSON(text string, v any) error {
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), v); err == nil {
			return nil
		}
	}

	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(clean)), v); err == nil {
		return nil
	}

	return &ParseError{RawLength: len(text)}
}
