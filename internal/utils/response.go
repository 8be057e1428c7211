package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the JSON shape of service-level responses (health, errors).
type Envelope struct {
	Success bool   `json:"success"`
	Data    gin.H  `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
	})
}

// Error writes the failure envelope and stops the handler chain.
func Error(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Envelope{
		Success: false,
		Error:   msg,
	})
}
