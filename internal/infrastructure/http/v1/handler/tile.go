package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxTileResolution = 2048

// Tile renders a single tile on demand and returns it as PNG.
func (h *Handler) Tile(c *gin.Context) {
	strResolution := c.Param("resolution")
	strX := c.Param("x")
	strY := c.Param("y")

	resolution, err := strconv.Atoi(strResolution)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "resolution should be integer",
		})
		return
	}

	if resolution <= 0 || resolution > maxTileResolution {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "resolution out of range",
		})
		return
	}

	x, err := strconv.Atoi(strX)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "x should be integer",
		})
		return
	}

	y, err := strconv.Atoi(strY)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "y should be integer",
		})
		return
	}

	data, err := h.viewportUseCase.RenderTile(c.Request.Context(), x, y, resolution)
	if err != nil {
		h.RespondWithInternalServerError(c)
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}
