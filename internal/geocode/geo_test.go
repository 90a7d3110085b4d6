package geocode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecocollect/ecocollect/internal/geocode"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

func TestDistance(t *testing.T) {
	douala := pickup.Coordinates{9.7043, 4.0483}
	yaounde := pickup.Coordinates{11.5174, 3.848}

	assert.InDelta(t, 202, geocode.Distance(douala, yaounde), 2)
	assert.InDelta(t, geocode.Distance(douala, yaounde), geocode.Distance(yaounde, douala), 1e-9)
	assert.Zero(t, geocode.Distance(douala, douala))
}

func TestWithinCameroon(t *testing.T) {
	assert.True(t, geocode.WithinCameroon(pickup.Coordinates{9.7043, 4.0483}))
	assert.True(t, geocode.WithinCameroon(pickup.Coordinates{8.5, 1.7}))
	assert.False(t, geocode.WithinCameroon(pickup.Coordinates{2.3522, 48.8566}))
	assert.False(t, geocode.WithinCameroon(pickup.Coordinates{16.3, 4}))
}

func TestCameroonCities(t *testing.T) {
	cities := geocode.CameroonCities()
	assert.Len(t, cities, 10)
	for _, c := range cities {
		assert.True(t, geocode.WithinCameroon(c.Coordinates), c.Name)
	}
	assert.Equal(t, "Limbe", geocode.NearestCity(pickup.Coordinates{9.2, 4.02}).Name)
}

func TestFormatCoordinates(t *testing.T) {
	assert.Equal(t, "4.048300, 9.704300", geocode.FormatCoordinates(pickup.Coordinates{9.7043, 4.0483}, 6))
	assert.Equal(t, "3.85, 11.52", geocode.FormatCoordinates(pickup.Coordinates{11.5174, 3.848}, 2))
}
