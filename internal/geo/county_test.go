package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountyKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kings County", "KINGS"},
		{"New York County", "NEW YORK"},
		{"St. Lawrence County", "ST. LAWRENCE"},
		{"  Albany County ", "ALBANY"},
		{"Bronx", "BRONX"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CountyKey(tt.in))
		})
	}
}

func TestIdentityKey(t *testing.T) {
	assert.Equal(t, "10001", IdentityKey(" 10001 "))
}
