package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackForCity_KnownCities(t *testing.T) {
	tests := []struct {
		city string
		lat  float64
		lon  float64
	}{
		{"Gaborone", -24.6282, 25.9231},
		{"Francistown", -21.1702, 27.5078},
		{"Maun", -19.9953, 23.4181},
		{"Kasane", -17.7986, 25.1572},
	}

	for _, tt := range tests {
		coords := FallbackForCity(tt.city)
		assert.Equal(t, tt.lat, coords.Latitude, tt.city)
		assert.Equal(t, tt.lon, coords.Longitude, tt.city)
	}
}

func TestFallbackForCity_NormalizesInput(t *testing.T) {
	assert.Equal(t, FallbackForCity("Maun"), FallbackForCity("  MAUN  "))
	assert.Equal(t, FallbackForCity("Selebi-Phikwe"), FallbackForCity("selebi-phikwe"))
}

func TestFallbackForCity_UnknownCityResolvesToCapital(t *testing.T) {
	coords := FallbackForCity("Nowhereville")

	assert.Equal(t, FallbackForCity("Gaborone"), coords)
}

func TestFallbackForCity_EmptyCity(t *testing.T) {
	coords := FallbackForCity("")

	assert.Equal(t, FallbackForCity("Gaborone"), coords)
}
