package static

import (
	"regexp"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/formprobe/internal/browser"
)

// finder evaluates a lookup against the current document.
type finder func(doc *html.Node) ([]*html.Node, error)

const (
	labelableXPath = "//*[self::input or self::select or self::textarea]"
	buttonXPath    = "//*[self::button or self::input or @role='button']"
)

// cssToXPath translates the selectors the steps use. The static driver has
// no CSS engine.
var cssToXPath = map[string]string{
	browser.FormControls: "//form//*[self::input or self::select or self::textarea]",
	browser.Checkboxes:   "//input[translate(@type,'CHEKBOX','chekbox')='checkbox']",
}

var whitespace = regexp.MustCompile(`\s+`)

func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func textOf(n *html.Node) string {
	return normalizeSpace(htmlquery.InnerText(n))
}

func attr(n *html.Node, name string) string {
	return htmlquery.SelectAttr(n, name)
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func tagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

func inputType(n *html.Node) string {
	t := strings.ToLower(strings.TrimSpace(attr(n, "type")))
	if t == "" {
		return "text"
	}
	return t
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && tagName(n) == tag
}

func isLabelable(n *html.Node) bool {
	switch {
	case isElement(n, "input"):
		return inputType(n) != "hidden"
	case isElement(n, "select"), isElement(n, "textarea"):
		return true
	}
	return false
}

func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func elementByID(doc *html.Node, id string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// isVisible reports whether n would be rendered, judged from markup alone.
func isVisible(n *html.Node) bool {
	if isElement(n, "input") && inputType(n) == "hidden" {
		return false
	}
	for x := n; x != nil; x = x.Parent {
		if x.Type != html.ElementNode {
			continue
		}
		switch tagName(x) {
		case "head", "script", "style", "template", "noscript":
			return false
		}
		if hasAttr(x, "hidden") {
			return false
		}
		style := strings.ToLower(strings.ReplaceAll(attr(x, "style"), " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

// labeledControl returns the control a <label> labels, following the HTML
// rules: the for attribute wins, otherwise the first labelable descendant.
func labeledControl(doc, label *html.Node) *html.Node {
	if hasAttr(label, "for") {
		target := elementByID(doc, attr(label, "for"))
		if target != nil && isLabelable(target) {
			return target
		}
		return nil
	}
	var found *html.Node
	walk(label, func(n *html.Node) bool {
		if n != label && isLabelable(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// accessibleLabels maps every labelled control to its label texts.
func accessibleLabels(doc *html.Node) map[*html.Node][]string {
	labels := make(map[*html.Node][]string)
	for _, label := range htmlquery.Find(doc, "//label") {
		if target := labeledControl(doc, label); target != nil {
			labels[target] = append(labels[target], textOf(label))
		}
	}
	for _, n := range htmlquery.Find(doc, labelableXPath) {
		if v := normalizeSpace(attr(n, "aria-label")); v != "" {
			labels[n] = append(labels[n], v)
		}
		if ids := strings.Fields(attr(n, "aria-labelledby")); len(ids) > 0 {
			parts := make([]string, 0, len(ids))
			for _, id := range ids {
				if ref := elementByID(doc, id); ref != nil {
					parts = append(parts, textOf(ref))
				}
			}
			labels[n] = append(labels[n], strings.Join(parts, " "))
		}
	}
	return labels
}

func byLabel(doc *html.Node, pattern *regexp.Regexp) []*html.Node {
	labels := accessibleLabels(doc)
	var out []*html.Node
	for _, n := range htmlquery.Find(doc, labelableXPath) {
		if !isLabelable(n) {
			continue
		}
		for _, text := range labels[n] {
			if pattern.MatchString(text) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func nearLabel(doc *html.Node, text string) []*html.Node {
	needle := strings.ToLower(normalizeSpace(text))
	seen := make(map[*html.Node]bool)
	var out []*html.Node
	for _, label := range htmlquery.Find(doc, "//label") {
		if !isVisible(label) || !strings.Contains(strings.ToLower(textOf(label)), needle) {
			continue
		}
		if n := followingControl(doc, label); n != nil && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sortDocumentOrder(doc, out)
	return out
}

// followingControl is the first input, select or textarea after label in
// document order, excluding label's own descendants (the XPath following axis).
func followingControl(doc, label *html.Node) *html.Node {
	var found *html.Node
	passed := false
	walk(doc, func(n *html.Node) bool {
		if n == label {
			passed = true
			return true
		}
		if !passed || isDescendant(n, label) || n.Type != html.ElementNode {
			return true
		}
		switch tagName(n) {
		case "input", "select", "textarea":
			found = n
			return false
		}
		return true
	})
	return found
}

func isDescendant(n, ancestor *html.Node) bool {
	for x := n.Parent; x != nil; x = x.Parent {
		if x == ancestor {
			return true
		}
	}
	return false
}

func byPlaceholder(doc *html.Node, pattern *regexp.Regexp) []*html.Node {
	var out []*html.Node
	for _, n := range htmlquery.Find(doc, "//*[(self::input or self::textarea) and @placeholder]") {
		if pattern.MatchString(attr(n, "placeholder")) {
			out = append(out, n)
		}
	}
	return out
}

func buttonsByName(doc *html.Node, pattern *regexp.Regexp) []*html.Node {
	var out []*html.Node
	for _, n := range htmlquery.Find(doc, buttonXPath) {
		if isElement(n, "input") {
			switch inputType(n) {
			case "submit", "button", "reset", "image":
			default:
				continue
			}
		}
		if isVisible(n) && pattern.MatchString(accessibleName(n)) {
			out = append(out, n)
		}
	}
	return out
}

func accessibleName(n *html.Node) string {
	if v := normalizeSpace(attr(n, "aria-label")); v != "" {
		return v
	}
	if isElement(n, "input") {
		if v := attr(n, "value"); v != "" {
			return normalizeSpace(v)
		}
		switch inputType(n) {
		case "submit":
			return "Submit"
		case "reset":
			return "Reset"
		}
		return ""
	}
	return textOf(n)
}

func sortDocumentOrder(doc *html.Node, nodes []*html.Node) {
	if len(nodes) < 2 {
		return
	}
	order := make(map[*html.Node]int)
	i := 0
	walk(doc, func(n *html.Node) bool {
		order[n] = i
		i++
		return true
	})
	sort.SliceStable(nodes, func(a, b int) bool { return order[nodes[a]] < order[nodes[b]] })
}

// formOf returns the form owning n.
func formOf(doc, n *html.Node) *html.Node {
	if id := attr(n, "form"); id != "" {
		if f := elementByID(doc, id); isElement(f, "form") {
			return f
		}
	}
	for x := n.Parent; x != nil; x = x.Parent {
		if isElement(x, "form") {
			return x
		}
	}
	return nil
}
