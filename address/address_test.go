package address_test

import (
	"testing"

	"github.com/mvogt/gridcalc/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColRoundTrip(t *testing.T) {
	cases := []struct {
		col     int
		letters string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.letters, address.ColToLetters(tc.col))
		got, err := address.LettersToCol(tc.letters)
		require.NoError(t, err)
		assert.Equal(t, tc.col, got)
	}
}

func TestLettersToColRejectsGarbage(t *testing.T) {
	_, err := address.LettersToCol("A1")
	assert.Error(t, err)
	_, err = address.LettersToCol("")
	assert.Error(t, err)
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"A1", "Z1", "AA1", "B2", "ZZ999"} {
		a, err := address.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, address.Format(a.Row, a.Col))
	}
}

func TestParseRejectsIllFormed(t *testing.T) {
	for _, s := range []string{"", "1A", "A0", "A", "1", "a1", "A 1", "A1:"} {
		_, err := address.Parse(s)
		assert.Errorf(t, err, "expected parse error for %q", s)
	}
}

func TestParseRangeRectangle(t *testing.T) {
	got, err := address.ParseRange("A1:B2")
	require.NoError(t, err)
	want := []address.Addr{
		{Row: 0, Col: 0}, {Row: 0, Col: 1},
		{Row: 1, Col: 0}, {Row: 1, Col: 1},
	}
	assert.Equal(t, want, got)
}

func TestParseRangeNormalizesOrder(t *testing.T) {
	got, err := address.ParseRange("B2:A1")
	require.NoError(t, err)
	want := []address.Addr{
		{Row: 0, Col: 0}, {Row: 0, Col: 1},
		{Row: 1, Col: 0}, {Row: 1, Col: 1},
	}
	assert.Equal(t, want, got)
}

func TestParseRangeSingleCell(t *testing.T) {
	got, err := address.ParseRange("C3")
	require.NoError(t, err)
	assert.Equal(t, []address.Addr{{Row: 2, Col: 2}}, got)
}

func TestAddrLess(t *testing.T) {
	assert.True(t, address.Addr{Row: 0, Col: 5}.Less(address.Addr{Row: 1, Col: 0}))
	assert.True(t, address.Addr{Row: 0, Col: 0}.Less(address.Addr{Row: 0, Col: 1}))
	assert.False(t, address.Addr{Row: 2, Col: 0}.Less(address.Addr{Row: 1, Col: 9}))
}
