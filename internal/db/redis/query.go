package redis

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
)

// minPrefixLen is the shortest term RediSearch expands as a prefix.
const minPrefixLen = 2

// buildQuery renders a filter.Expression into an FT.SEARCH query string (DIALECT 2).
// Clauses are space-joined (intersection); an empty expression matches everything.
func buildQuery(expr filter.Expression) string {
	if expr.IsEmpty() {
		return "*"
	}

	parts := make([]string, 0, len(expr.Text())+len(expr.Must())+len(expr.MustNot()))

	for _, tx := range expr.Text() {
		if s := buildTextClause(tx); s != "" {
			parts = append(parts, s)
		}
	}

	for _, cond := range expr.Must() {
		parts = append(parts, buildCondition(cond))
	}

	if len(parts) == 0 {
		// negation alone is not a valid RediSearch query
		parts = append(parts, "*")
	}

	for _, cond := range expr.MustNot() {
		parts = append(parts, "-"+buildCondition(cond))
	}

	return strings.Join(parts, " ")
}

// buildTextClause renders an in-order phrase-prefix match across fields:
// (@title|description:(world bank*)) => { $slop: 0; $inorder: true; }
func buildTextClause(tx filter.Text) string {
	terms := tx.Terms()
	if len(terms) == 0 || len(tx.Fields()) == 0 {
		return ""
	}

	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = escapeQuery(t)
	}
	if last := terms[len(terms)-1]; len([]rune(last)) >= minPrefixLen {
		escaped[len(escaped)-1] += "*"
	}

	return fmt.Sprintf("(@%s:(%s)) => { $slop: 0; $inorder: true; }",
		strings.Join(tx.Fields(), "|"), strings.Join(escaped, " "))
}

func buildCondition(cond filter.Condition) string {
	switch {
	case cond.IsMatch():
		return buildTagFilter(cond.Key(), cond.Values()[0])
	case cond.IsAll():
		parts := make([]string, len(cond.Values()))
		for i, v := range cond.Values() {
			parts[i] = buildTagFilter(cond.Key(), v)
		}
		return strings.Join(parts, " ")
	case cond.IsScope():
		path := tagEscaper.Replace(cond.Values()[0])
		return fmt.Sprintf("@%s:{%s|%s\\.*}", cond.Key(), path, path)
	default:
		return ""
	}
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	"?", "\\?",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`.`, `\.`,
	`,`, `\,`,
	`/`, `\/`,
)
