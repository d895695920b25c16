// README: Ride handlers for create/get/status/nearby.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridematch/internal/modules/matching"
	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

type RideService interface {
	Create(ctx context.Context, cmd ride.CreateCommand) (*ride.Ride, error)
	Transition(ctx context.Context, cmd ride.TransitionCommand) (*ride.Ride, error)
	Get(ctx context.Context, id types.ID) (*ride.Ride, error)
}

type NearbyFinder interface {
	Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]matching.Nearby, error)
}

type RideHandler struct {
	rides  RideService
	nearby NearbyFinder
}

func NewRideHandler(rides RideService, nearby NearbyFinder) *RideHandler {
	return &RideHandler{rides: rides, nearby: nearby}
}

type createRideReq struct {
	Driver       ride.Driver  `json:"driver"`
	Pickup       *types.Point `json:"pickup"`
	Dropoff      *types.Point `json:"dropoff"`
	VehicleClass string       `json:"vehicle_class"`
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Pickup == nil || req.Dropoff == nil {
		writeError(c, http.StatusBadRequest, "missing pickup/dropoff")
		return
	}
	if !isValidID(string(req.Driver.ID)) {
		writeError(c, http.StatusBadRequest, "invalid driver id")
		return
	}
	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		Driver:       req.Driver,
		Pickup:       *req.Pickup,
		Dropoff:      *req.Dropoff,
		VehicleClass: req.VehicleClass,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

func (h *RideHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	r, err := h.rides.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

type transitionReq struct {
	Status ride.Status `json:"status"`
}

func (h *RideHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}
	r, err := h.rides.Transition(c.Request.Context(), ride.TransitionCommand{RideID: types.ID(id), To: req.Status})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *RideHandler) Nearby(c *gin.Context) {
	p, ok := pointQuery(c, "lat", "lng")
	if !ok {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radius := 0.0
	if v := c.Query("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 {
			writeError(c, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radius = r
	}
	rides, err := h.nearby.Nearby(c.Request.Context(), p, radius)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": rides})
}
