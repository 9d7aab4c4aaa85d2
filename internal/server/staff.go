package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	staffdomain "github.com/smallbiznis/barberdesk/internal/staff/domain"
)

func (s *Server) CreateStaff(c *gin.Context) {
	var req staffdomain.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.staffSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": resp})
}

func (s *Server) ListStaff(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.staffSvc.List(c.Request.Context(), staffdomain.ListStaffRequest{Active: active})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (s *Server) GetStaffByID(c *gin.Context) {
	resp, err := s.staffSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}
