package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		dims    int
		want    Record
		wantErr bool
	}{
		{"valid", "7,cafe,1.5,-2", 2, Record{ID: 7, Name: "cafe", Coords: []float64{1.5, -2}}, false},
		{"empty name", "8,,0,0", 2, Record{ID: 8, Name: "", Coords: []float64{0, 0}}, false},
		{"trailing newline", "9,x,3\n", 1, Record{ID: 9, Name: "x", Coords: []float64{3}}, false},
		{"too few fields", "1,a,1", 2, Record{}, true},
		{"too many fields", "1,a,1,2,3", 2, Record{}, true},
		{"bad id", "x,a,1,2", 2, Record{}, true},
		{"bad coordinate", "1,a,1,abc", 2, Record{}, true},
		{"nan coordinate", "1,a,NaN,2", 2, Record{}, true},
		{"infinite coordinate", "1,a,1,+Inf", 2, Record{}, true},
		{"negative infinite coordinate", "1,a,-inf,2", 2, Record{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.line, "", tt.dims)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatRecord_RoundTrip(t *testing.T) {
	r := Record{ID: 42, Name: "node", Coords: []float64{0.25, 1e-3, 12}}
	line, err := FormatRecord(r, ";")
	require.NoError(t, err)
	assert.Equal(t, "42;node;0.25;0.001;12", line)

	back, err := ParseRecord(line, ";", 3)
	require.NoError(t, err)
	assert.Equal(t, r, back)

	// A delimiter in the name is fine as long as it is not the one in use.
	line, err = FormatRecord(Record{ID: 1, Name: "a,b", Coords: []float64{1}}, ";")
	require.NoError(t, err)
	back, err = ParseRecord(line, ";", 1)
	require.NoError(t, err)
	assert.Equal(t, "a,b", back.Name)
}

func TestFormatRecord_Unformattable(t *testing.T) {
	tests := []struct {
		name  string
		rec   Record
		delim string
	}{
		{"default delimiter in name", Record{ID: 1, Name: "Paris, France", Coords: []float64{1, 2}}, ""},
		{"custom delimiter in name", Record{ID: 2, Name: "a;b", Coords: []float64{1, 2}}, ";"},
		{"newline in name", Record{ID: 3, Name: "a\nb", Coords: []float64{1, 2}}, ","},
		{"carriage return in name", Record{ID: 4, Name: "a\r", Coords: []float64{1, 2}}, ","},
		{"nan coordinate", Record{ID: 5, Name: "a", Coords: []float64{math.NaN(), 2}}, ","},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FormatRecord(tt.rec, tt.delim)
			assert.ErrorIs(t, err, ErrUnformattable)
		})
	}
}

func TestRecordClone(t *testing.T) {
	r := Record{ID: 1, Coords: []float64{1, 2}}
	c := r.Clone()
	c.Coords[0] = 9
	assert.Equal(t, 1.0, r.Coords[0])
}

func TestRecordString(t *testing.T) {
	r := Record{ID: 3, Name: "p", Coords: []float64{1, 2.5}}
	assert.Equal(t, "ID: 3, Name: p, Coordinates: 1, 2.5", r.String())
}
