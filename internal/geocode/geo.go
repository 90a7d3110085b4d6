package geocode

import (
	"fmt"
	"math"

	"github.com/ecocollect/ecocollect/internal/pickup"
)

const earthRadiusKm = 6371

// Distance is the great-circle distance between a and b in kilometres.
func Distance(a, b pickup.Coordinates) float64 {
	dLat := radians(b.Lat() - a.Lat())
	dLng := radians(b.Lng() - a.Lng())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat()))*math.Cos(radians(b.Lat()))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Approximate bounds of Cameroon.
const (
	cameroonNorth = 13.1
	cameroonSouth = 1.7
	cameroonEast  = 16.2
	cameroonWest  = 8.5
)

// CameroonBBox is the search box matching WithinCameroon.
var CameroonBBox = [4]float64{cameroonWest, cameroonSouth, cameroonEast, cameroonNorth}

// WithinCameroon reports whether c lies inside the country's bounding box.
func WithinCameroon(c pickup.Coordinates) bool {
	return c.Lat() >= cameroonSouth && c.Lat() <= cameroonNorth &&
		c.Lng() >= cameroonWest && c.Lng() <= cameroonEast
}

// City is a named point used to bias searches.
type City struct {
	Name        string
	Coordinates pickup.Coordinates
}

// CameroonCities returns the major cities, largest first.
func CameroonCities() []City {
	return []City{
		{Name: "Douala", Coordinates: pickup.Coordinates{9.7043, 4.0483}},
		{Name: "Yaoundé", Coordinates: pickup.Coordinates{11.5174, 3.848}},
		{Name: "Garoua", Coordinates: pickup.Coordinates{13.3978, 9.3265}},
		{Name: "Maroua", Coordinates: pickup.Coordinates{14.3159, 10.5913}},
		{Name: "Bamenda", Coordinates: pickup.Coordinates{10.1591, 5.9631}},
		{Name: "Bafoussam", Coordinates: pickup.Coordinates{10.4203, 5.4781}},
		{Name: "Ngaoundéré", Coordinates: pickup.Coordinates{13.5847, 7.3167}},
		{Name: "Bertoua", Coordinates: pickup.Coordinates{13.6848, 4.5767}},
		{Name: "Ebolowa", Coordinates: pickup.Coordinates{11.1546, 2.9069}},
		{Name: "Limbe", Coordinates: pickup.Coordinates{9.2145, 4.0186}},
	}
}

// NearestCity returns the city closest to c.
func NearestCity(c pickup.Coordinates) City {
	cities := CameroonCities()
	best := cities[0]
	bestDist := Distance(c, best.Coordinates)
	for _, city := range cities[1:] {
		if d := Distance(c, city.Coordinates); d < bestDist {
			best, bestDist = city, d
		}
	}
	return best
}

// FormatCoordinates renders c as "lat, lng" with precision decimals.
func FormatCoordinates(c pickup.Coordinates, precision int) string {
	return fmt.Sprintf("%.*f, %.*f", precision, c.Lat(), precision, c.Lng())
}
