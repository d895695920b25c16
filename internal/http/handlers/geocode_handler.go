// README: Geocoding handler for address input collection.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridematch/internal/maps"
	"ridematch/internal/types"
)

type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]maps.Place, error)
	Reverse(ctx context.Context, p types.Point) ([]maps.Place, error)
}

type GeocodeHandler struct {
	geo Geocoder
}

func NewGeocodeHandler(geo Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geo: geo}
}

// Lookup resolves ?address=... forward, or ?lat=..&lng=.. in reverse.
func (h *GeocodeHandler) Lookup(c *gin.Context) {
	var (
		places []maps.Place
		err    error
	)
	if address := c.Query("address"); address != "" {
		places, err = h.geo.Geocode(c.Request.Context(), address)
	} else if p, ok := pointQuery(c, "lat", "lng"); ok {
		if err := p.Validate(); err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		places, err = h.geo.Reverse(c.Request.Context(), p)
	} else {
		writeError(c, http.StatusBadRequest, "address or lat/lng is required")
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"places": places})
}
