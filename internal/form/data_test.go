package form

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formprobe/internal/field"
)

func TestDefaults(t *testing.T) {
	want := Data{
		FirstName: "Abel",
		LastName:  "Diaz",
		Phone:     "1234567890",
		Country:   "Argentina",
		Email:     "abel.diaz@example.com",
		Password:  "abc123",
	}
	if diff := cmp.Diff(want, Defaults()); diff != "" {
		t.Errorf("Defaults() mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		overrides Overrides
		want      func(*Data)
	}{
		{"no overrides", Overrides{}, func(*Data) {}},
		{"empty string clears", Overrides{LastName: String("")}, func(d *Data) { d.LastName = "" }},
		{"phone", Overrides{Phone: String("123")}, func(d *Data) { d.Phone = "123" }},
		{
			"country and terms",
			Overrides{Country: String("Brazil"), AcceptTerms: Bool(true)},
			func(d *Data) { d.Country = "Brazil"; d.AcceptTerms = true },
		},
		{"explicit false terms", Overrides{AcceptTerms: Bool(false)}, func(*Data) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := Defaults()
			tt.want(&want)
			if diff := cmp.Diff(want, Merge(Defaults(), tt.overrides)); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeDoesNotMutateDefaults(t *testing.T) {
	base := Defaults()
	_ = Merge(base, Overrides{Email: String("x@y.z")})
	assert.Equal(t, "abel.diaz@example.com", base.Email)
}

func TestParseOverrides(t *testing.T) {
	o, err := ParseOverrides([][]string{
		{"field", "value"},
		{"First Name", "Ana"},
		{"last_name", ""},
		{"Teléfono", "123"},
		{"país", "Brazil"},
		{"terms", "yes"},
	})
	require.NoError(t, err)

	got := Merge(Defaults(), o)
	want := Defaults()
	want.FirstName = "Ana"
	want.LastName = ""
	want.Phone = "123"
	want.Country = "Brazil"
	want.AcceptTerms = true
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseOverrides() mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, o.Email, "unset fields stay nil")
}

func TestParseOverridesSpanishHeader(t *testing.T) {
	o, err := ParseOverrides([][]string{{"campo", "valor"}, {"contraseña", "abc"}, {"términos", "sí"}})
	require.NoError(t, err)
	require.NotNil(t, o.Password)
	assert.Equal(t, "abc", *o.Password)
	require.NotNil(t, o.AcceptTerms)
	assert.True(t, *o.AcceptTerms)
}

func TestParseOverridesErrors(t *testing.T) {
	_, err := ParseOverrides([][]string{{"zip", "1000"}})
	assert.ErrorContains(t, err, `unknown field "zip"`)

	_, err = ParseOverrides([][]string{{"email"}})
	assert.ErrorContains(t, err, "expected 2 cells")

	_, err = ParseOverrides([][]string{{"terms", "maybe"}})
	assert.ErrorContains(t, err, "not a boolean")
}

type fuzzTable struct {
	Rows [][]string
}

func FuzzParseOverrides(f *testing.F) {
	f.Add([]byte("email"))
	f.Fuzz(func(t *testing.T, data []byte) {
		var table fuzzTable
		if err := fuzz.NewConsumer(data).GenerateStruct(&table); err != nil {
			return
		}
		o, err := ParseOverrides(table.Rows)
		if err != nil {
			return
		}
		// Whatever parsed must merge without touching unset fields.
		merged := Merge(Defaults(), o)
		if o.Email == nil && merged.Email != Defaults().Email {
			t.Fatalf("unset email changed to %q", merged.Email)
		}
	})
}

func TestDataValue(t *testing.T) {
	d := Merge(Defaults(), Overrides{Phone: String("123"), AcceptTerms: Bool(true)})

	got := map[string]string{}
	for _, f := range field.All {
		v, ok := d.Value(f)
		require.True(t, ok, f.Name)
		got[f.Name] = v
	}
	want := map[string]string{
		"First Name": "Abel",
		"Last Name":  "Diaz",
		"Phone":      "123",
		"Country":    "Argentina",
		"Email":      "abel.diaz@example.com",
		"Password":   "abc123",
		"Terms":      "true",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Value mismatch (-want +got):\n%s", diff)
	}

	_, ok := d.Value(field.Field{Name: "Zip"})
	assert.False(t, ok)
}
