package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jaennil/terrain_streamer/internal/usecase"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate        *validator.Validate
	viewportUseCase *usecase.ViewportUseCase
}

func NewHandler(v *validator.Validate, uc *usecase.ViewportUseCase) *Handler {
	return &Handler{
		validate:        v,
		viewportUseCase: uc,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}
