package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xkilldash9x/formprobe/internal/field"
)

// Data is the complete set of values typed into the form.
type Data struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Phone       string `json:"phone"`
	Country     string `json:"country"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AcceptTerms bool   `json:"acceptTerms"`
}

// Defaults returns the baseline registration. Terms stay unchecked because
// the live checkbox is disabled.
func Defaults() Data {
	return Data{
		FirstName:   "Abel",
		LastName:    "Diaz",
		Phone:       "1234567890",
		Country:     "Argentina",
		Email:       "abel.diaz@example.com",
		Password:    "abc123",
		AcceptTerms: false,
	}
}

// Value returns what d types into f. Terms reads as "true" or "false".
func (d Data) Value(f field.Field) (string, bool) {
	switch f.Name {
	case field.FirstName.Name:
		return d.FirstName, true
	case field.LastName.Name:
		return d.LastName, true
	case field.Phone.Name:
		return d.Phone, true
	case field.Country.Name:
		return d.Country, true
	case field.Email.Name:
		return d.Email, true
	case field.Password.Name:
		return d.Password, true
	case field.Terms.Name:
		return strconv.FormatBool(d.AcceptTerms), true
	}
	return "", false
}

// Overrides is a partial Data. A nil field keeps the default; a pointer to
// the empty string clears it.
type Overrides struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Country     *string
	Email       *string
	Password    *string
	AcceptTerms *bool
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Merge applies the set fields of o on top of base.
func Merge(base Data, o Overrides) Data {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&base.FirstName, o.FirstName)
	set(&base.LastName, o.LastName)
	set(&base.Phone, o.Phone)
	set(&base.Country, o.Country)
	set(&base.Email, o.Email)
	set(&base.Password, o.Password)
	if o.AcceptTerms != nil {
		base.AcceptTerms = *o.AcceptTerms
	}
	return base
}

// overrideKeys maps normalized English and Spanish field names to setters.
var overrideKeys = map[string]func(*Overrides, string) error{
	"firstname":   setString(func(o *Overrides) **string { return &o.FirstName }),
	"nombre":      setString(func(o *Overrides) **string { return &o.FirstName }),
	"lastname":    setString(func(o *Overrides) **string { return &o.LastName }),
	"apellido":    setString(func(o *Overrides) **string { return &o.LastName }),
	"phone":       setString(func(o *Overrides) **string { return &o.Phone }),
	"telefono":    setString(func(o *Overrides) **string { return &o.Phone }),
	"country":     setString(func(o *Overrides) **string { return &o.Country }),
	"pais":        setString(func(o *Overrides) **string { return &o.Country }),
	"email":       setString(func(o *Overrides) **string { return &o.Email }),
	"password":    setString(func(o *Overrides) **string { return &o.Password }),
	"contrasena":  setString(func(o *Overrides) **string { return &o.Password }),
	"acceptterms": setBool,
	"terms":       setBool,
	"terminos":    setBool,
}

func setString(field func(*Overrides) **string) func(*Overrides, string) error {
	return func(o *Overrides, v string) error {
		*field(o) = String(v)
		return nil
	}
}

func setBool(o *Overrides, v string) error {
	b, err := parseBool(v)
	if err != nil {
		return err
	}
	o.AcceptTerms = Bool(b)
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "si", "sí", "accepted", "checked":
		return true, nil
	case "no", "n", "unchecked":
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", v)
	}
	return b, nil
}

var keyReplacer = strings.NewReplacer(" ", "", "_", "", "-", "", "í", "i", "á", "a", "é", "e", "ñ", "n")

func normalizeKey(k string) string {
	return keyReplacer.Replace(strings.ToLower(strings.TrimSpace(k)))
}

// ParseOverrides builds overrides from two-column "field | value" rows, such
// as a Gherkin data table. A leading header row (field/value or campo/valor)
// is skipped. Later rows win over earlier ones.
func ParseOverrides(rows [][]string) (Overrides, error) {
	var o Overrides
	for i, row := range rows {
		if len(row) != 2 {
			return Overrides{}, fmt.Errorf("row %d: expected 2 cells (field, value), got %d", i+1, len(row))
		}
		key := normalizeKey(row[0])
		if i == 0 && isHeader(key, normalizeKey(row[1])) {
			continue
		}
		set, ok := overrideKeys[key]
		if !ok {
			return Overrides{}, fmt.Errorf("row %d: unknown field %q", i+1, row[0])
		}
		if err := set(&o, row[1]); err != nil {
			return Overrides{}, fmt.Errorf("row %d: %s: %w", i+1, row[0], err)
		}
	}
	return o, nil
}

func isHeader(key, value string) bool {
	return (key == "field" && value == "value") || (key == "campo" && value == "valor")
}
