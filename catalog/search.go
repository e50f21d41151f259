package catalog

import (
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// smartSplit matches whitespace separated tokens, keeping quoted spans
// (with backslash escapes) inside a single token.
var smartSplit = regexp.MustCompile(`((?:[^\s'"]*(?:(?:"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')[^\s'"]*)+)|\S+)`)

// SplitSearchTerms normalizes a free-text search string into terms.
// `milk, "whole milk"` yields ["milk", "whole milk"].
func SplitSearchTerms(s string) []string {
	s = strings.ReplaceAll(s, "\x00", "")
	var terms []string
	for _, token := range smartSplit.FindAllString(s, -1) {
		token = strings.Trim(token, ",")
		if isQuoted(token) {
			quote := token[:1]
			token = token[1 : len(token)-1]
			token = strings.ReplaceAll(token, `\`+quote, quote)
			token = strings.ReplaceAll(token, `\\`, `\`)
			if token != "" {
				terms = append(terms, token)
			}
			continue
		}
		for _, part := range strings.Split(token, ",") {
			if part = strings.TrimSpace(part); part != "" {
				terms = append(terms, part)
			}
		}
	}
	return terms
}

func isQuoted(token string) bool {
	if len(token) < 2 {
		return false
	}
	first, last := token[0], token[len(token)-1]
	return first == last && (first == '"' || first == '\'')
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchScope filters item_definitions so that every term matches, case
// insensitively, at least one of the name, the slug, or the title or slug of
// one of its item groups.
func SearchScope(terms []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, term := range terms {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
			db = db.Where(
				`(LOWER(item_definitions.name) LIKE ? ESCAPE '\' OR LOWER(item_definitions.slug) LIKE ? ESCAPE '\' OR item_definitions.id IN (`+
					`SELECT item_definition_groups.item_definition_id FROM item_definition_groups `+
					`JOIN item_groups ON item_groups.id = item_definition_groups.item_group_id `+
					`WHERE LOWER(item_groups.title) LIKE ? ESCAPE '\' OR LOWER(item_groups.slug) LIKE ? ESCAPE '\'))`,
				pattern, pattern, pattern, pattern,
			)
		}
		return db
	}
}
