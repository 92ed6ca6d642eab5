package geo

import (
	"net/url"

	"github.com/UnknownOlympus/asclepius/internal/models"
)

const directionsBaseURL = "https://www.google.com/maps/dir/"

// DirectionsURL builds a driving-directions link from origin to dest that the
// mobile client can open directly.
func DirectionsURL(origin, dest models.Coordinate) string {
	params := url.Values{}
	params.Set("api", "1")
	params.Set("origin", origin.String())
	params.Set("destination", dest.String())
	params.Set("travelmode", "driving")

	return directionsBaseURL + "?" + params.Encode()
}
