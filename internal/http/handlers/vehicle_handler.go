// README: Vehicle handlers for fleet listing, booking, and ride completion.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridecore/internal/modules/booking"
	"ridecore/internal/modules/location"
	"ridecore/internal/types"
)

type VehicleHandler struct {
	vehicles  VehicleService
	booking   BookingService
	distancer Distancer
}

func NewVehicleHandler(vehicles VehicleService, booking BookingService, distancer Distancer) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, booking: booking, distancer: distancer}
}

func (h *VehicleHandler) List(c *gin.Context) {
	vehicles, err := h.vehicles.GetAllVehicles(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": vehicles})
}

func (h *VehicleHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid vehicle id")
		return
	}
	v, ok, err := h.vehicles.GetVehicle(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !ok {
		writeError(c, http.StatusNotFound, "vehicle not found")
		return
	}
	writeJSON(c, http.StatusOK, v)
}

type bookReq struct {
	Email string `json:"email" binding:"required"`
}

func (h *VehicleHandler) Book(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid vehicle id")
		return
	}
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "email is required")
		return
	}
	v, err := h.booking.Book(c.Request.Context(), booking.BookCommand{VehicleID: types.ID(id), Email: req.Email})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

type finishReq struct {
	Email         string   `json:"email" binding:"required"`
	Lat           *float64 `json:"lat" binding:"required"`
	Lng           *float64 `json:"lng" binding:"required"`
	DestinationKm *float64 `json:"destination_km"`
}

// Finish ends the ride at (lat, lng). Without destination_km the ride
// distance is measured from the vehicle's pickup position.
func (h *VehicleHandler) Finish(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid vehicle id")
		return
	}
	var req finishReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "email, lat and lng are required")
		return
	}
	ctx := c.Request.Context()
	dropoff := types.Point{Lat: *req.Lat, Lng: *req.Lng}
	if err := location.Validate(dropoff); err != nil {
		writeServiceError(c, err)
		return
	}

	var distanceKm float64
	if req.DestinationKm != nil {
		distanceKm = *req.DestinationKm
	} else {
		v, ok, err := h.vehicles.GetVehicle(ctx, types.ID(id))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		if !ok {
			writeError(c, http.StatusNotFound, "vehicle not found")
			return
		}
		distanceKm, err = h.distancer.DistanceKm(ctx, v.Position, dropoff)
		if err != nil {
			writeServiceError(c, err)
			return
		}
	}

	out, err := h.booking.Finish(ctx, booking.FinishCommand{
		VehicleID:     types.ID(id),
		Email:         req.Email,
		Position:      dropoff,
		DestinationKm: distanceKm,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, out)
}
