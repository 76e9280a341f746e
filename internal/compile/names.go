package compile

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// DOM event names that are not the lower-cased handler suffix.
var eventAliases = map[string]string{
	"doubleclick": "dblclick",
}

// EventName maps a handler attribute to its DOM event: onClick -> click.
func EventName(attr string) string {
	name := lower.String(strings.TrimPrefix(attr, "on"))
	if alias, ok := eventAliases[name]; ok {
		return alias
	}
	return name
}

func htmlAttrName(name string) string {
	switch name {
	case "className":
		return "class"
	case "htmlFor":
		return "for"
	}
	return name
}

// stringLiteral unquotes a JS string literal without escapes or
// interpolation. ok is false for anything else.
func stringLiteral(src string) (string, bool) {
	if len(src) < 2 {
		return "", false
	}
	q := src[0]
	if q != '"' && q != '\'' && q != '`' || src[len(src)-1] != q {
		return "", false
	}
	inner := src[1 : len(src)-1]
	if strings.ContainsRune(inner, rune(q)) || strings.ContainsRune(inner, '\\') {
		return "", false
	}
	if q == '`' && strings.Contains(inner, "${") {
		return "", false
	}
	return inner, true
}

// jsString renders s as a JS string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
