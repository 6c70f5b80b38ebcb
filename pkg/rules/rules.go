// Package rules extracts host names from Traefik router rule expressions.
//
// Only the Host matcher is recognised and only its literal argument is
// captured; this is pattern extraction, not a parser for the rule language.
package rules

import "regexp"

// hostMatcher captures the argument of Host(`...`): lowercase letters,
// digits, dots and commas only.
var hostMatcher = regexp.MustCompile("Host\\(`([a-z0-9,.]+)`\\)")

// ExtractDomains returns every Host matcher argument in rule, in order of
// appearance. It returns an empty slice when the rule has no Host matcher.
func ExtractDomains(rule string) []string {
	matches := hostMatcher.FindAllStringSubmatch(rule, -1)
	domains := make([]string, 0, len(matches))
	for _, m := range matches {
		domains = append(domains, m[1])
	}
	return domains
}
