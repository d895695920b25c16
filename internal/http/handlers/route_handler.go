// README: Route estimate handler (provider route or fallback path, plus fares).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridematch/internal/service"
	"ridematch/internal/types"
)

type TripQuoter interface {
	Quote(ctx context.Context, from, to types.Point, waypoints []types.Point, classes ...string) (service.TripQuote, error)
}

type RouteHandler struct {
	quoter TripQuoter
}

func NewRouteHandler(quoter TripQuoter) *RouteHandler {
	return &RouteHandler{quoter: quoter}
}

type estimateReq struct {
	From         *types.Point  `json:"from"`
	To           *types.Point  `json:"to"`
	Waypoints    []types.Point `json:"waypoints"`
	VehicleClass string        `json:"vehicle_class"`
}

func (h *RouteHandler) Estimate(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.From == nil || req.To == nil {
		writeError(c, http.StatusBadRequest, "missing from/to")
		return
	}
	var classes []string
	if req.VehicleClass != "" {
		classes = append(classes, req.VehicleClass)
	}
	q, err := h.quoter.Quote(c.Request.Context(), *req.From, *req.To, req.Waypoints, classes...)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}
