package claims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want *time.Time
	}{
		{"iso", "2019-01-10", ptrTime(date(2019, 1, 10))},
		{"socrata timestamp", "2019-01-10T00:00:00.000", ptrTime(date(2019, 1, 10))},
		{"datetime", "2019-01-10 13:45:00", ptrTime(date(2019, 1, 10))},
		{"us padded", "01/10/2019", ptrTime(date(2019, 1, 10))},
		{"us short", "1/9/2019", ptrTime(date(2019, 1, 9))},
		{"us with time", "01/10/2019 08:30", ptrTime(date(2019, 1, 10))},
		{"whitespace", " 2019-01-10 ", ptrTime(date(2019, 1, 10))},
		{"empty", "", nil},
		{"garbage", "yesterday", nil},
		{"impossible", "2019-02-30", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDate(tt.s)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseYN(t *testing.T) {
	assert.Equal(t, 1, parseYN("Y"))
	assert.Equal(t, 1, parseYN(" Y "))
	assert.Equal(t, 0, parseYN("N"))
	assert.Equal(t, 0, parseYN("y"))
	assert.Equal(t, 0, parseYN(""))
	assert.Equal(t, 0, parseYN("YES"))
}

func TestParseGender(t *testing.T) {
	assert.Equal(t, 1, parseGender("M"))
	assert.Equal(t, 0, parseGender("F"))
	assert.Equal(t, 0, parseGender("U"))
	assert.Equal(t, 0, parseGender(""))
}

func TestParseFloatPtr(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want *float64
	}{
		{"integer", "42", ptrFloat(42)},
		{"decimal", "850.25", ptrFloat(850.25)},
		{"thousands", "1,250.50", ptrFloat(1250.5)},
		{"zero", "0", ptrFloat(0)},
		{"spaces", " 7 ", ptrFloat(7)},
		{"empty", "", nil},
		{"text", "abc", nil},
		{"nan", "NaN", nil},
		{"inf", "Inf", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFloatPtr(tt.s)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.0001)
		})
	}
}

func TestParseFloatOr(t *testing.T) {
	assert.InDelta(t, 3, parseFloatOr("3", 0), 0.0001)
	assert.InDelta(t, 0, parseFloatOr("", 0), 0.0001)
	assert.InDelta(t, -1, parseFloatOr("x", -1), 0.0001)
}

func TestDaysBetween(t *testing.T) {
	a := date(2019, 1, 10)
	b := date(2019, 1, 15)

	d := daysBetween(&a, &b)
	require.NotNil(t, d)
	assert.Equal(t, 5, *d)

	d = daysBetween(&b, &a)
	require.NotNil(t, d)
	assert.Equal(t, -5, *d)

	assert.Nil(t, daysBetween(nil, &b))
	assert.Nil(t, daysBetween(&a, nil))
}

func TestMonthStart(t *testing.T) {
	assert.Equal(t, date(2020, 2, 1), monthStart(date(2020, 2, 29)))
	assert.Equal(t, date(2020, 3, 1), monthStart(date(2020, 3, 1)))
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrFloat(f float64) *float64 { return &f }
