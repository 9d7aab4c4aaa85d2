package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/barberdesk/internal/auth"
)

// IssueToken exchanges a staff id and PIN for a bearer token.
func (s *Server) IssueToken(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.StaffID == "" || req.PIN == "" {
		AbortWithError(c, newValidationError("pin", "required", "staff_id and pin are required"))
		return
	}

	resp, err := s.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}
