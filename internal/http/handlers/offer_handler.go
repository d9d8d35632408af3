// README: Offer handler ranks nearby vehicles for a rider.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridecore/internal/modules/location"
	"ridecore/internal/modules/matching"
	"ridecore/internal/types"
)

type OfferHandler struct {
	matching     OfferService
	distancer    Distancer
	defaultCount int
	maxCount     int
}

func NewOfferHandler(svc OfferService, distancer Distancer, defaultCount, maxCount int) *OfferHandler {
	return &OfferHandler{matching: svc, distancer: distancer, defaultCount: defaultCount, maxCount: maxCount}
}

type offerReq struct {
	Lat           *float64 `json:"lat" binding:"required"`
	Lng           *float64 `json:"lng" binding:"required"`
	DestLat       *float64 `json:"dest_lat"`
	DestLng       *float64 `json:"dest_lng"`
	DestinationKm *float64 `json:"destination_km"`
	Count         *int     `json:"count"`
}

func (h *OfferHandler) Create(c *gin.Context) {
	var req offerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	ctx := c.Request.Context()
	rider := types.Point{Lat: *req.Lat, Lng: *req.Lng}
	if err := location.Validate(rider); err != nil {
		writeServiceError(c, err)
		return
	}

	count := h.defaultCount
	if req.Count != nil {
		count = *req.Count
	}
	if count < 0 {
		writeError(c, http.StatusBadRequest, "count must not be negative")
		return
	}
	if h.maxCount > 0 && count > h.maxCount {
		count = h.maxCount
	}

	var distanceKm float64
	switch {
	case req.DestinationKm != nil:
		distanceKm = *req.DestinationKm
	case req.DestLat != nil && req.DestLng != nil:
		dest := types.Point{Lat: *req.DestLat, Lng: *req.DestLng}
		if err := location.Validate(dest); err != nil {
			writeServiceError(c, err)
			return
		}
		km, err := h.distancer.DistanceKm(ctx, rider, dest)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		distanceKm = km
	default:
		writeError(c, http.StatusBadRequest, "destination_km or dest_lat/dest_lng is required")
		return
	}
	if distanceKm < 0 {
		writeError(c, http.StatusBadRequest, "destination_km must not be negative")
		return
	}

	offers, err := h.matching.FindOffers(ctx, matching.Request{
		Position:      rider,
		DestinationKm: distanceKm,
		Count:         count,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"destination_km": distanceKm, "offers": offers})
}
