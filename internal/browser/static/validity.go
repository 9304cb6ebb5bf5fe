package static

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// emailPattern is the WHATWG "valid email address" production.
var emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

func isFormControl(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch tagName(n) {
	case "input", "select", "textarea", "button", "fieldset", "option", "optgroup":
		return true
	}
	return false
}

// isDisabled follows the HTML definition: the element's own attribute or a
// disabled ancestor fieldset, unless the element sits in that fieldset's
// first legend.
func isDisabled(n *html.Node) bool {
	if !isFormControl(n) {
		return false
	}
	if hasAttr(n, "disabled") {
		return true
	}
	for x := n.Parent; x != nil; x = x.Parent {
		if isElement(x, "fieldset") && hasAttr(x, "disabled") {
			if legend := firstLegend(x); legend != nil && isDescendant(n, legend) {
				continue
			}
			return true
		}
		if isElement(n, "option") && isElement(x, "optgroup") && hasAttr(x, "disabled") {
			return true
		}
	}
	return false
}

func firstLegend(fieldset *html.Node) *html.Node {
	for c := fieldset.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "legend") {
			return c
		}
	}
	return nil
}

// willValidate reports whether n is a candidate for constraint validation.
func willValidate(n *html.Node) bool {
	switch tagName(n) {
	case "input":
		switch inputType(n) {
		case "hidden", "submit", "button", "reset", "image":
			return false
		case "checkbox", "radio":
		default:
			if hasAttr(n, "readonly") {
				return false
			}
		}
	case "textarea":
		if hasAttr(n, "readonly") {
			return false
		}
	case "select":
	default:
		return false
	}
	return !isDisabled(n)
}

// checkValidity emulates the element's checkValidity(). Elements that are
// not candidates for validation are always valid.
func checkValidity(doc, n *html.Node) bool {
	if n.Type != html.ElementNode || !willValidate(n) {
		return true
	}
	required := hasAttr(n, "required")

	switch tagName(n) {
	case "select":
		if !required || hasAttr(n, "multiple") {
			return true
		}
		opt := selectedOption(n)
		return opt != nil && optionValue(opt) != ""
	case "textarea":
		return textConstraintsHold(n, htmlquery.InnerText(n), "textarea", required)
	}

	switch t := inputType(n); t {
	case "checkbox":
		return !required || hasAttr(n, "checked")
	case "radio":
		group := radioGroup(doc, n)
		groupRequired := false
		for _, r := range group {
			if hasAttr(r, "checked") {
				return true
			}
			groupRequired = groupRequired || hasAttr(r, "required")
		}
		return !groupRequired
	default:
		return textConstraintsHold(n, attr(n, "value"), t, required)
	}
}

func textConstraintsHold(n *html.Node, value, typ string, required bool) bool {
	if value == "" {
		return !required
	}

	switch typ {
	case "email":
		addrs := []string{value}
		if hasAttr(n, "multiple") {
			addrs = strings.Split(value, ",")
		}
		for _, a := range addrs {
			if !emailPattern.MatchString(strings.TrimSpace(a)) {
				return false
			}
		}
	case "url":
		if u, err := url.Parse(value); err != nil || u.Scheme == "" {
			return false
		}
	case "number":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			// The browser sanitizes an unparsable number to the empty string.
			return !required
		}
		if lo, err := strconv.ParseFloat(attr(n, "min"), 64); err == nil && v < lo {
			return false
		}
		if hi, err := strconv.ParseFloat(attr(n, "max"), 64); err == nil && v > hi {
			return false
		}
		return true
	}

	if p := attr(n, "pattern"); p != "" && typ != "textarea" {
		// An uncompilable pattern is ignored, as browsers do.
		if re, err := regexp.Compile("^(?:" + p + ")$"); err == nil && !re.MatchString(value) {
			return false
		}
	}

	length := len(utf16.Encode([]rune(value)))
	if minLen, err := strconv.Atoi(attr(n, "minlength")); err == nil && length < minLen {
		return false
	}
	if maxLen, err := strconv.Atoi(attr(n, "maxlength")); err == nil && maxLen >= 0 && length > maxLen {
		return false
	}
	return true
}

func options(sel *html.Node) []*html.Node {
	return htmlquery.Find(sel, ".//option")
}

func optionLabel(opt *html.Node) string {
	if hasAttr(opt, "label") {
		return attr(opt, "label")
	}
	return textOf(opt)
}

func optionValue(opt *html.Node) string {
	if hasAttr(opt, "value") {
		return attr(opt, "value")
	}
	return textOf(opt)
}

// selectedOption returns the last option marked selected, or the first
// enabled option when none is.
func selectedOption(sel *html.Node) *html.Node {
	opts := options(sel)
	var selected *html.Node
	for _, opt := range opts {
		if hasAttr(opt, "selected") {
			selected = opt
		}
	}
	if selected != nil {
		return selected
	}
	for _, opt := range opts {
		if !isDisabled(opt) {
			return opt
		}
	}
	return nil
}

func radioGroup(doc, n *html.Node) []*html.Node {
	name := attr(n, "name")
	if name == "" {
		return []*html.Node{n}
	}
	form := formOf(doc, n)
	var group []*html.Node
	for _, r := range htmlquery.Find(doc, "//input") {
		if inputType(r) == "radio" && attr(r, "name") == name && formOf(doc, r) == form {
			group = append(group, r)
		}
	}
	return group
}

// describeNode renders a short XPath for logs, anchored on the nearest id.
func describeNode(node *html.Node) string {
	var path []string
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if id := attr(n, "id"); id != "" {
			path = append(path, fmt.Sprintf("//*[@id='%s']", id))
			break
		}
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && prev.Data == n.Data {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tagName(n), index))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	xpath := strings.Join(path, "/")
	if !strings.HasPrefix(xpath, "//") {
		xpath = "/" + xpath
	}
	return xpath
}
