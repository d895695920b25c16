// README: Rider handlers for recommendations, feedback and preferences.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/recommend"
	"ridematch/internal/service"
	"ridematch/internal/types"
)

type RideRecommender interface {
	Recommend(ctx context.Context, riderID types.ID, req recommend.Request) (service.Recommendations, error)
}

type ProfileService interface {
	Get(ctx context.Context, id types.ID) (profile.RiderProfile, error)
	UpdatePreferences(ctx context.Context, id types.ID, prefs profile.Preferences) (profile.RiderProfile, error)
	Feedback(ctx context.Context, msg profile.FeedbackMessage) (profile.RiderProfile, error)
}

// FeedbackQueue hands feedback to the background consumer.
type FeedbackQueue interface {
	Enqueue(ctx context.Context, msg profile.FeedbackMessage) error
}

type RiderHandler struct {
	finder   RideRecommender
	profiles ProfileService
	queue    FeedbackQueue
}

// NewRiderHandler builds the handler. queue may be nil, in which case
// feedback is applied inline.
func NewRiderHandler(finder RideRecommender, profiles ProfileService, queue FeedbackQueue) *RiderHandler {
	return &RiderHandler{finder: finder, profiles: profiles, queue: queue}
}

type recommendReq struct {
	Pickup      *types.Point `json:"pickup"`
	Destination *types.Point `json:"destination"`
	At          time.Time    `json:"at"`
}

func (h *RiderHandler) Recommend(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid rider id")
		return
	}
	var req recommendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Pickup == nil || req.Destination == nil {
		writeError(c, http.StatusBadRequest, "missing pickup/destination")
		return
	}
	out, err := h.finder.Recommend(c.Request.Context(), types.ID(id), recommend.Request{
		Pickup:      *req.Pickup,
		Destination: *req.Destination,
		At:          req.At,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, out)
}

type feedbackReq struct {
	RideID   string    `json:"ride_id"`
	Rating   float64   `json:"rating"`
	Accepted bool      `json:"accepted"`
	At       time.Time `json:"at"`
}

func (h *RiderHandler) Feedback(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid rider id")
		return
	}
	var req feedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.RideID) {
		writeError(c, http.StatusBadRequest, "invalid ride id")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(c, http.StatusBadRequest, profile.ErrInvalidRating.Error())
		return
	}
	msg := profile.FeedbackMessage{
		RiderID:  types.ID(id),
		RideID:   types.ID(req.RideID),
		Rating:   req.Rating,
		Accepted: req.Accepted,
		At:       req.At,
	}
	if msg.At.IsZero() {
		msg.At = time.Now()
	}

	if h.queue != nil {
		if err := h.queue.Enqueue(c.Request.Context(), msg); err == nil {
			writeJSON(c, http.StatusAccepted, gin.H{"status": "queued"})
			return
		}
	}
	p, err := h.profiles.Feedback(c.Request.Context(), msg)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *RiderHandler) GetProfile(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid rider id")
		return
	}
	p, err := h.profiles.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *RiderHandler) UpdatePreferences(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid rider id")
		return
	}
	// Omitted fields keep the defaults.
	prefs := profile.DefaultProfile(types.ID(id)).Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.profiles.UpdatePreferences(c.Request.Context(), types.ID(id), prefs)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}
