// README: Review handlers for listing, lookup, and rating submission.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ridecore/internal/modules/review"
	"ridecore/internal/types"
)

type ReviewHandler struct {
	reviews ReviewService
}

func NewReviewHandler(svc ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: svc}
}

func (h *ReviewHandler) ListForVehicle(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid vehicle id")
		return
	}
	reviews, err := h.reviews.ListForVehicle(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	writeJSON(c, http.StatusOK, gin.H{
		"reviews":        reviews,
		"average_rating": review.AverageRating(reviews),
	})
}

func (h *ReviewHandler) ListForUser(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" || !strings.Contains(email, "@") {
		writeError(c, http.StatusBadRequest, "invalid email")
		return
	}
	reviews, err := h.reviews.ListForUser(c.Request.Context(), email)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if reviews == nil {
		reviews = []review.UserReview{}
	}
	writeJSON(c, http.StatusOK, gin.H{"reviews": reviews})
}

func (h *ReviewHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid review id")
		return
	}
	r, ok, err := h.reviews.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "review not found")
		return
	}
	writeJSON(c, http.StatusOK, r)
}

type submitReq struct {
	Email   string   `json:"email" binding:"required"`
	Rating  *float64 `json:"rating" binding:"required"`
	Comment string   `json:"comment"`
}

func (h *ReviewHandler) Submit(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid review id")
		return
	}
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "email and rating are required")
		return
	}
	r, err := h.reviews.Submit(c.Request.Context(), review.SubmitCommand{
		ReviewID: types.ID(id),
		Email:    req.Email,
		Rating:   *req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
