// Package field holds the semantic descriptors of the Bugs Form controls.
package field

import (
	"regexp"
	"strings"
)

// Field describes one form control by meaning rather than by selector. A
// descriptor never guarantees that a matching element exists on the page.
type Field struct {
	// Name is used in logs and defect reports.
	Name string
	// LabelPattern matches the control's accessible label.
	LabelPattern *regexp.Regexp
	// LabelText is the human-visible label used for the adjacency lookup.
	LabelText string
	// PlaceholderPattern matches the control's placeholder text.
	PlaceholderPattern *regexp.Regexp
}

func (f Field) String() string { return f.Name }

var (
	FirstName = Field{
		Name:               "First Name",
		LabelPattern:       regexp.MustCompile(`(?i)first\s*name`),
		LabelText:          "First Name",
		PlaceholderPattern: regexp.MustCompile(`(?i)enter.*first`),
	}
	LastName = Field{
		Name:               "Last Name",
		LabelPattern:       regexp.MustCompile(`(?i)last\s*name`),
		LabelText:          "Last Name",
		PlaceholderPattern: regexp.MustCompile(`(?i)enter.*last`),
	}
	// The live page labels this "Phone nunber"; the placeholder pattern
	// accepts the typo.
	Phone = Field{
		Name:               "Phone",
		LabelPattern:       regexp.MustCompile(`(?i)phone`),
		LabelText:          "Phone",
		PlaceholderPattern: regexp.MustCompile(`(?i)enter.*(phone|nunber|number)`),
	}
	Country = Field{
		Name:               "Country",
		LabelPattern:       regexp.MustCompile(`(?i)country`),
		LabelText:          "Country",
		PlaceholderPattern: regexp.MustCompile(`(?i)country|enter.*country`),
	}
	Email = Field{
		Name:               "Email",
		LabelPattern:       regexp.MustCompile(`(?i)email`),
		LabelText:          "Email address",
		PlaceholderPattern: regexp.MustCompile(`(?i)enter.*email`),
	}
	Password = Field{
		Name:               "Password",
		LabelPattern:       regexp.MustCompile(`(?i)password`),
		LabelText:          "Password",
		PlaceholderPattern: regexp.MustCompile(`(?i)enter.*password`),
	}
	Terms = Field{
		Name:               "Terms",
		LabelPattern:       regexp.MustCompile(`(?i)terms|conditions`),
		LabelText:          "I agree with the terms and conditions",
		PlaceholderPattern: regexp.MustCompile(`(?i)terms`),
	}
)

// RegisterButton matches the accessible name of the submit button.
var RegisterButton = regexp.MustCompile(`(?i)register`)

// All lists the catalogue in fill order.
var All = []Field{FirstName, LastName, Phone, Country, Email, Password, Terms}

// Lookup returns the catalogue entry for name, ignoring case, spaces, dashes
// and underscores ("last-name", "LastName" and "last name" are equivalent).
func Lookup(name string) (Field, bool) {
	key := normalize(name)
	for _, f := range All {
		if normalize(f.Name) == key {
			return f, true
		}
	}
	return Field{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
}
