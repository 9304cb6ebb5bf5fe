package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCataloguePatterns(t *testing.T) {
	tests := []struct {
		field       Field
		label       string
		placeholder string
	}{
		{FirstName, "First Name", "Enter first name"},
		{LastName, "Last Name*", "Enter last name"},
		{Phone, "Phone nunber*", "Enter phone nunber"},
		{Country, "Country", "Select a country..."},
		{Email, "Email adress*", "Enter email"},
		{Password, "Password*", "Enter password"},
		{Terms, "I agree with the terms and conditions", "terms"},
	}
	for _, tt := range tests {
		t.Run(tt.field.Name, func(t *testing.T) {
			assert.True(t, tt.field.LabelPattern.MatchString(tt.label))
			assert.True(t, tt.field.PlaceholderPattern.MatchString(tt.placeholder))
		})
	}
}

func TestPatternsAreCaseInsensitive(t *testing.T) {
	assert.True(t, FirstName.LabelPattern.MatchString("FIRSTNAME"))
	assert.True(t, RegisterButton.MatchString("REGISTER"))
	assert.False(t, LastName.LabelPattern.MatchString("First Name"))
}

func TestLookup(t *testing.T) {
	f, ok := Lookup("last-name")
	require.True(t, ok)
	assert.Equal(t, LastName.Name, f.Name)

	f, ok = Lookup("EMAIL")
	require.True(t, ok)
	assert.Equal(t, "Email address", f.LabelText)

	_, ok = Lookup("zip code")
	assert.False(t, ok)
}
