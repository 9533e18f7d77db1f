package common

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// RewriteRule swaps .png for .webp in one textual context
type RewriteRule struct {
	Name    string
	pattern *regexp2.Regexp
}

const rewriteReplacement = "${1}${2}webp${3}${4}"

func newRule(name, expr string) RewriteRule {
	return RewriteRule{
		Name:    name,
		pattern: regexp2.MustCompile(expr, regexp2.IgnoreCase),
	}
}

// RewriteRules are applied in this order. Each keeps the delimiters and any
// query string around the extension.
var RewriteRules = []RewriteRule{
	newRule("quoted-img-path", `(["'])([^"']*?img[^"']*?\.)png(\?[^"']*)?(\1)`),
	newRule("css-url", `(url\(["']?)([^)]*?\.)png(\?[^)]*)?(["']?\))`),
	newRule("src-attr", `(src\s*=\s*["'])([^"']*?\.)png(\?[^"']*)?(["']?)`),
	newRule("href-attr", `(href\s*=\s*["'])([^"']*?\.)png(\?[^"']*)?(["']?)`),
	newRule("image-prop", `(image:)([^,}]*?\.)png(\?[^,}]*)?([,}])`),
	newRule("array-item", `(\[)([^\]]*?\.)png(\?[^\]]*)?(\])`),
}

// Apply rewrites every match of the rule in content
func (r RewriteRule) Apply(content string) (string, error) {
	out, err := r.pattern.Replace(content, rewriteReplacement, -1, -1)
	if err != nil {
		return content, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	return out, nil
}

// RewriteReferences runs all rules over content and reports whether it changed
func RewriteReferences(content string) (string, bool, error) {
	out := content
	for _, rule := range RewriteRules {
		next, err := rule.Apply(out)
		if err != nil {
			return content, false, err
		}
		out = next
	}
	return out, out != content, nil
}

// RewriteReferencesBytes is RewriteReferences for raw file data, which must be UTF-8
func RewriteReferencesBytes(data []byte) (string, bool, error) {
	if !utf8.Valid(data) {
		return "", false, fmt.Errorf("content is not valid UTF-8")
	}
	return RewriteReferences(string(data))
}

// EstimateReplacements approximates the number of rewritten references as the
// .png occurrences before minus the .webp occurrences after. Pre-existing .webp
// references and unmatched .png substrings skew it.
func EstimateReplacements(before, after string) int {
	return countFold(before, ".png") - countFold(after, ".webp")
}

func countFold(s, substr string) int {
	return strings.Count(strings.ToLower(s), substr)
}
