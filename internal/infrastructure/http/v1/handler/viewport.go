package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaennil/terrain_streamer/internal/infrastructure/http/v1/dto"
)

// Viewport returns the current render plane composited as one PNG.
func (h *Handler) Viewport(c *gin.Context) {
	data, err := h.viewportUseCase.SnapshotPNG()
	if err != nil {
		h.RespondWithInternalServerError(c)
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}

// Pan feeds a pointer-drag delta into the streaming engine.
func (h *Handler) Pan(c *gin.Context) {
	var req dto.PanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "body should be JSON with numeric dx and dy",
		})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	state := h.viewportUseCase.Pan(c.Request.Context(), req.DX, req.DY)

	h.RespondWithJSON(c, http.StatusOK, "pan applied", state)
}

// State reports the viewport position and cache occupancy.
func (h *Handler) State(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusOK, "viewport state", h.viewportUseCase.State())
}
