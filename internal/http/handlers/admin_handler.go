// README: Operator endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	fleet FleetReloader
}

func NewAdminHandler(fleet FleetReloader) *AdminHandler {
	return &AdminHandler{fleet: fleet}
}

// ReloadFleet re-reads every vehicle from storage into the cache.
func (h *AdminHandler) ReloadFleet(c *gin.Context) {
	n, err := h.fleet.Reload(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": n})
}
