package tools

import (
	"strings"
)

// Spec identifies a detected tool request: canonical tool name plus its
// argument text.
type Spec struct {
	Name  string
	Input string
}

// prefixMap maps recognized query prefixes to canonical tool names.
var prefixMap = map[string]string{
	"sql":    "sql",
	"web":    "web",
	"search": "web", // alias
}

// Detect parses an explicit tool prefix from the user's query. Pure and
// side-effect free.
//
// Supported forms:
//
//	"sql: SELECT * FROM table"
//	"web: query terms"
//	"search: query terms"    (alias of web)
//	"tool:sql: <arg>"        (generic form)
//
// Returns (Spec, true) when a recognized prefix is present.
func Detect(query string) (Spec, bool) {
	raw := strings.TrimSpace(query)
	if raw == "" {
		return Spec{}, false
	}

	lower := strings.ToLower(raw)

	// Generic form: tool:<name>:<arg>
	if strings.HasPrefix(lower, "tool:") {
		rest := strings.TrimSpace(raw[len("tool:"):])
		restLower := strings.ToLower(rest)
		for prefix, name := range prefixMap {
			p := prefix + ":"
			if strings.HasPrefix(restLower, p) {
				return Spec{Name: name, Input: strings.TrimSpace(rest[len(p):])}, true
			}
		}
		// "tool:" with no recognized subtool is not a tool request.
		return Spec{}, false
	}

	for prefix, name := range prefixMap {
		p := prefix + ":"
		if strings.HasPrefix(lower, p) {
			return Spec{Name: name, Input: strings.TrimSpace(raw[len(p):])}, true
		}
	}

	return Spec{}, false
}
