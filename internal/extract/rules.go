package extract

import "regexp"

// Rule is one pure extraction heuristic: raw page text in, optional
// value out. Rules for a field run in fixed priority order; the first
// hit wins and a miss on every rule leaves the field absent. Storefront
// markup drifts without notice, so absence is always a valid outcome.
type Rule struct {
	Name    string
	pattern *regexp.Regexp
	group   int
}

// Apply runs the rule against the page text.
func (r Rule) Apply(html string) (string, bool) {
	m := r.pattern.FindStringSubmatch(html)
	if m == nil || len(m) <= r.group {
		return "", false
	}
	return m[r.group], true
}

func rule(name, pattern string) Rule {
	return Rule{Name: name, pattern: regexp.MustCompile(pattern), group: 1}
}

// firstMatch evaluates rules in order and returns the first hit.
func firstMatch(html string, rules []Rule) (string, bool) {
	for _, r := range rules {
		if v, ok := r.Apply(html); ok {
			return v, true
		}
	}
	return "", false
}
