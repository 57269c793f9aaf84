// Package importer reads person cards (Markdown files with YAML frontmatter)
// from a directory and bulk-creates roster entries: the person, their group
// memberships, and any facts listed in the frontmatter. The Markdown body, if
// present, becomes the person's summary.
package importer

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rkeeling/kith/pkg/types"
)

// CardFact is one fact entry from a card's frontmatter.
type CardFact struct {
	Category types.FactCategory
	Label    string
	Value    string
}

// PersonCard is a single parsed roster file.
type PersonCard struct {
	// RelativePath is the path relative to the import root directory.
	RelativePath string

	FirstName string
	LastName  string
	Nickname  string
	Phone     string
	Email     string
	Birthday  string

	// Groups are group names the person belongs to. Groups are created
	// lazily during import when no case-insensitive match exists.
	Groups []string

	Facts []CardFact

	// Summary is the Markdown body with surrounding whitespace trimmed.
	Summary string
}

// ParsePersonCard parses one card file. relativePath is used for error
// messages and as the name fallback when the frontmatter carries none.
func ParsePersonCard(content []byte, relativePath string) (*PersonCard, error) {
	fm, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, fmt.Errorf("frontmatter parse error in %s: %w", relativePath, err)
	}

	card := &PersonCard{
		RelativePath: relativePath,
		Nickname:     extractString(fm, "nickname"),
		Phone:        extractString(fm, "phone"),
		Email:        extractString(fm, "email"),
		Birthday:     extractString(fm, "birthday"),
		Summary:      strings.TrimSpace(body),
	}

	card.FirstName, card.LastName = extractName(fm, relativePath)
	if card.FirstName == "" {
		return nil, fmt.Errorf("no name in %s", relativePath)
	}

	card.Groups = extractGroups(fm)

	card.Facts, err = extractFacts(fm)
	if err != nil {
		return nil, fmt.Errorf("invalid facts in %s: %w", relativePath, err)
	}

	return card, nil
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters) from
// the Markdown body. Returns an empty map and the full text when no
// frontmatter is found.
func splitFrontmatter(text string) (map[string]interface{}, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		// No closing delimiter, treat the entire file as body.
		return map[string]interface{}{}, text, nil
	}

	fmText := strings.Join(lines[1:closeIdx], "\n")
	fm := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return map[string]interface{}{}, text, fmt.Errorf("invalid YAML: %w", err)
	}

	body := strings.Join(lines[closeIdx+1:], "\n")
	return fm, body, nil
}

// extractName reads the person's name. A combined "name" key is split on the
// first space; explicit first_name/last_name keys win over it. Falls back to
// the file name with dashes and underscores read as spaces.
func extractName(fm map[string]interface{}, relativePath string) (first, last string) {
	if full := extractString(fm, "name"); full != "" {
		parts := strings.SplitN(full, " ", 2)
		first = parts[0]
		if len(parts) > 1 {
			last = strings.TrimSpace(parts[1])
		}
	}
	if v := extractString(fm, "first_name"); v != "" {
		first = v
	}
	if v := extractString(fm, "last_name"); v != "" {
		last = v
	}
	if first == "" {
		base := filepath.Base(relativePath)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		name = strings.ReplaceAll(name, "-", " ")
		name = strings.ReplaceAll(name, "_", " ")
		parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
		first = parts[0]
		if len(parts) > 1 {
			last = strings.TrimSpace(parts[1])
		}
	}
	return first, last
}

// extractGroups reads group names. Handles both list and comma-separated
// string forms; blank entries are dropped.
func extractGroups(fm map[string]interface{}) []string {
	raw, ok := fm["groups"]
	if !ok {
		return nil
	}

	var groups []string
	appendGroup := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			groups = append(groups, s)
		}
	}

	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				appendGroup(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			appendGroup(s)
		}
	}
	return groups
}

// extractFacts reads the facts entry. Two forms are accepted:
//
//	facts:
//	  company: Ecorp
//
// maps a category directly to a value with a default label, and
//
//	facts:
//	  - category: company
//	    label: Employer
//	    value: Ecorp
//
// spells out all three fields. Unknown categories are an error so a typo in a
// card does not silently drop data.
func extractFacts(fm map[string]interface{}) ([]CardFact, error) {
	raw, ok := fm["facts"]
	if !ok {
		return nil, nil
	}

	var facts []CardFact
	switch v := raw.(type) {
	case map[string]interface{}:
		for key, val := range v {
			s, ok := val.(string)
			if !ok || strings.TrimSpace(s) == "" {
				continue
			}
			category := types.FactCategory(strings.TrimSpace(key))
			if !types.IsValidFactCategory(category) {
				return nil, fmt.Errorf("unknown fact category %q", key)
			}
			facts = append(facts, CardFact{
				Category: category,
				Label:    defaultLabel(category),
				Value:    strings.TrimSpace(s),
			})
		}
	case []interface{}:
		for i, item := range v {
			entry, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("fact %d is not a mapping", i)
			}
			category := types.FactCategory(extractString(entry, "category"))
			if !types.IsValidFactCategory(category) {
				return nil, fmt.Errorf("fact %d: unknown category %q", i, category)
			}
			value := extractString(entry, "value")
			if value == "" {
				return nil, fmt.Errorf("fact %d: empty value", i)
			}
			label := extractString(entry, "label")
			if label == "" {
				label = defaultLabel(category)
			}
			facts = append(facts, CardFact{Category: category, Label: label, Value: value})
		}
	default:
		return nil, fmt.Errorf("facts must be a mapping or a list")
	}
	return facts, nil
}

// defaultLabel derives a display label from the category name.
func defaultLabel(category types.FactCategory) string {
	label := strings.ReplaceAll(string(category), "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// extractString pulls a trimmed string value from a YAML mapping by key.
func extractString(fm map[string]interface{}, key string) string {
	v, ok := fm[key]
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case int, int64, float64, bool:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	}
	return ""
}
