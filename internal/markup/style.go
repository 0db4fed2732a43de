package markup

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Declaration is one CSS property/value pair from an inline style.
type Declaration struct {
	Property string
	Value    string
}

// ParseStyle splits an inline style attribute into declarations, keeping
// their order. Property names are lowercased; empty entries are dropped.
func ParseStyle(style string) []Declaration {
	decls := make([]Declaration, 0)
	for _, part := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" {
			continue
		}
		decls = append(decls, Declaration{Property: prop, Value: value})
	}
	return decls
}

// FormatStyle joins declarations back into an inline style attribute.
func FormatStyle(decls []Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Property+": "+d.Value)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}

// MergeStyle sets each property in props on style, replacing existing
// values in place and appending new ones in sorted property order.
func MergeStyle(style string, props map[string]string) string {
	decls := ParseStyle(style)

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		prop := strings.ToLower(strings.TrimSpace(k))
		value := strings.TrimSpace(props[k])
		replaced := false
		for i := range decls {
			if decls[i].Property == prop {
				decls[i].Value = value
				replaced = true
			}
		}
		if !replaced {
			decls = append(decls, Declaration{Property: prop, Value: value})
		}
	}

	return FormatStyle(decls)
}

// StyleValue returns the value of prop in an inline style, or "".
func StyleValue(style, prop string) string {
	prop = strings.ToLower(prop)
	value := ""
	for _, d := range ParseStyle(style) {
		if d.Property == prop {
			value = d.Value
		}
	}
	return value
}

// SetStyle merges props into the style attribute of n.
func SetStyle(n *html.Node, props map[string]string) {
	if n == nil || n.Type != html.ElementNode || len(props) == 0 {
		return
	}
	merged := MergeStyle(Attribute(n, "style"), props)
	for i := range n.Attr {
		if n.Attr[i].Key == "style" {
			n.Attr[i].Val = merged
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: merged})
}
