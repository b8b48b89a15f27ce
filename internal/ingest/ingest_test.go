package ingest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/borderline/internal/geo"
	"github.com/woozymasta/borderline/internal/ingest"
)

func TestIngest_Empty(t *testing.T) {
	res := ingest.Ingest(nil)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Rejected())
}

func TestIngest_Rejections(t *testing.T) {
	cases := []struct {
		name string
		row  ingest.RawRow
		want ingest.Reason
	}{
		{"TooShort", ingest.RawRow{"AT", "10"}, ingest.ReasonArity},
		{"NoCells", ingest.RawRow{}, ingest.ReasonArity},
		{"BlankCountry", ingest.RawRow{"  ", "10", "47"}, ingest.ReasonCountry},
		{"NotANumber", ingest.RawRow{"AT", "notanumber", "47"}, ingest.ReasonNotNumeric},
		{"EmptyLatitude", ingest.RawRow{"AT", "10", ""}, ingest.ReasonNotNumeric},
		{"NaN", ingest.RawRow{"AT", "NaN", "47"}, ingest.ReasonNotFinite},
		{"Inf", ingest.RawRow{"AT", "10", "-Inf"}, ingest.ReasonNotFinite},
		{"Overflow", ingest.RawRow{"AT", "1e400", "47"}, ingest.ReasonNotFinite},
		{"LongitudeRange", ingest.RawRow{"AT", "180.5", "47"}, ingest.ReasonOutOfRange},
		{"LatitudeRange", ingest.RawRow{"AT", "10", "-91"}, ingest.ReasonOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ingest.Ingest([]ingest.RawRow{tc.row})
			assert.Empty(t, res.Records)
			require.Len(t, res.Rejections, 1)
			assert.Equal(t, ingest.Rejection{Row: 0, Reason: tc.want}, res.Rejections[0])
		})
	}
}

func TestIngest_RejectedSiblingKeepsOthers(t *testing.T) {
	rows := []ingest.RawRow{
		{"AT", "10", "47"},
		{"AT", "notanumber", "47"},
		{"AT", " 10.1 ", "47.05"},
		{"DE", "13", "52", "extra"},
	}
	res := ingest.Ingest(rows)

	assert.Equal(t, []geo.PointRecord{
		{CountryCode: "AT", Longitude: 10, Latitude: 47},
		{CountryCode: "AT", Longitude: 10.1, Latitude: 47.05},
		{CountryCode: "DE", Longitude: 13, Latitude: 52},
	}, res.Records)
	assert.Equal(t, 1, res.Rejected())
	assert.Equal(t, 1, res.Rejections[0].Row)
}

func TestIngest_CountsAddUp(t *testing.T) {
	rows := []ingest.RawRow{
		{"AT", "10", "47"}, {"x"}, {"DE", "a", "b"}, {"FR", "2", "46"},
		{"IT", "12", "95"}, {"", "1", "1"}, {"CH", "8", "47"},
	}
	res := ingest.Ingest(rows)
	assert.Equal(t, len(rows), len(res.Records)+res.Rejected())
	assert.Len(t, res.Records, 3)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "not_numeric", ingest.ReasonNotNumeric.String())
	assert.Equal(t, "unknown", ingest.Reason(0).String())
}

func TestReadCSV_DefaultLayout(t *testing.T) {
	input := "id,country,lon,lat\n" +
		"1,AT,10,47\n" +
		"2,AT,10.1,47.05\n" +
		"3,DE\n" +
		"4,DE,13,52\n"

	rows, err := ingest.ReadCSV(strings.NewReader(input), ingest.DefaultCSVOptions())
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ingest.RawRow{"AT", "10", "47"}, rows[0])
	assert.Equal(t, ingest.RawRow{"DE"}, rows[2], "short rows are kept for rejection")

	res := ingest.Ingest(rows)
	assert.Len(t, res.Records, 3)
	assert.Equal(t, 1, res.Rejected())
}

func TestReadCSV_CustomColumnsNoHeader(t *testing.T) {
	input := "47;10;AT\n52;13;DE\n"
	opts := ingest.CSVOptions{
		Columns: ingest.Columns{Country: 2, Longitude: 1, Latitude: 0},
		Comma:   ';',
	}

	rows, err := ingest.ReadCSV(strings.NewReader(input), opts)
	require.NoError(t, err)
	assert.Equal(t, []ingest.RawRow{{"AT", "10", "47"}, {"DE", "13", "52"}}, rows)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ingest.ReadCSV(strings.NewReader("a,b,c\n"), ingest.CSVOptions{Columns: ingest.Columns{Country: -1}})
	assert.ErrorIs(t, err, ingest.ErrColumns)

	_, err = ingest.ReadCSV(strings.NewReader("1,\"AT,10,47\n"), ingest.DefaultCSVOptions())
	assert.Error(t, err)
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	rows, err := ingest.ReadCSV(strings.NewReader("id,country,lon,lat\n"), ingest.DefaultCSVOptions())
	require.NoError(t, err)
	assert.Empty(t, rows)
}
