// chatwarden/pkg/runtime/render.go

package runtime

import (
	"regexp"
	"strconv"
	"strings"
)

// render expands $0..$n capture variables and {name} context variables
// in a templated action value. Capture indexes are substituted from the
// highest down so $12 is not clobbered by $1.
func render(template string, groups []string, vars map[string]string) string {
	out := template
	for i := len(groups) - 1; i >= 0; i-- {
		out = strings.ReplaceAll(out, "$"+strconv.Itoa(i), groups[i])
	}
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

// replaceFirst substitutes the first pattern occurrence in text.
func replaceFirst(pattern *regexp.Regexp, text, with string) string {
	loc := pattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + with + text[loc[1]:]
}
