package types

import (
	"testing"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StringList
	}{
		{name: "array of strings", input: `["Arroz","Feijão"]`, expected: StringList{"Arroz", "Feijão"}},
		{name: "null", input: `null`, expected: StringList{}},
		{name: "empty input", input: ``, expected: StringList{}},
		{name: "object instead of array", input: `{"a":"b"}`, expected: StringList{}},
		{name: "string instead of array", input: `"Arroz"`, expected: StringList{}},
		{name: "mixed element types", input: `["Arroz", 3, null, true, "Leite"]`, expected: StringList{"Arroz", "Leite"}},
		{name: "blank elements dropped", input: `["", "  ", "Água"]`, expected: StringList{"Água"}},
		{name: "malformed", input: `["Arroz"`, expected: StringList{}},
		{name: "duplicates kept", input: `["Arroz","Arroz"]`, expected: StringList{"Arroz", "Arroz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStringList([]byte(tt.input)))
		})
	}
}

func TestDonationPointDecodeTolerance(t *testing.T) {
	body := `{"nome":"Centro","cidade":"Recife","tipos_doacao":"Alimento","itens_urgentes":null}`

	var p DonationPoint
	require.NoError(t, encoding.UnmarshalJSON([]byte(body), &p))

	assert.Equal(t, "Recife", p.City)
	assert.Empty(t, p.DonationTypes)
	assert.Empty(t, p.UrgentItems)
	assert.False(t, p.HasCoordinates())
}

func TestStringListMarshal(t *testing.T) {
	var empty StringList
	data, err := empty.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = StringList{"Roupas"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["Roupas"]`, string(data))
}

func TestStringListScanAndValue(t *testing.T) {
	original := StringList{"Arroz", "Feijão"}
	value, err := original.Value()
	require.NoError(t, err)

	stored, ok := value.(string)
	require.True(t, ok)
	assert.JSONEq(t, `["Arroz","Feijão"]`, stored)

	var fromString StringList
	require.NoError(t, fromString.Scan(stored))
	assert.Equal(t, original, fromString)

	var fromBytes StringList
	require.NoError(t, fromBytes.Scan([]byte(stored)))
	assert.Equal(t, original, fromBytes)

	var fromNull StringList
	require.NoError(t, fromNull.Scan(nil))
	assert.NotNil(t, fromNull)
	assert.Empty(t, fromNull)

	var fromGarbage StringList
	require.NoError(t, fromGarbage.Scan("not json"))
	assert.Empty(t, fromGarbage)
}

func TestGeocodeQuery(t *testing.T) {
	p := DonationPoint{Address: " Rua A, 10 ", City: "Porto Alegre"}
	assert.Equal(t, "Rua A, 10, Porto Alegre, Brasil", p.GeocodeQuery())

	p = DonationPoint{City: "Canoas"}
	assert.Equal(t, "Canoas, Brasil", p.GeocodeQuery())
}

func TestPointInputApply(t *testing.T) {
	lat, lng := -30.03, -51.23
	in := PointInput{
		Name:      "  Ginásio  ",
		City:      "Porto Alegre ",
		Latitude:  &lat,
		Longitude: &lng,
	}

	p := DonationPoint{ID: 7}
	in.Apply(&p)

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Ginásio", p.Name)
	assert.Equal(t, "Porto Alegre", p.City)
	assert.NotNil(t, p.DonationTypes)
	assert.NotNil(t, p.UrgentItems)
	assert.True(t, p.HasCoordinates())
	assert.Equal(t, lat, *p.Latitude)
}
