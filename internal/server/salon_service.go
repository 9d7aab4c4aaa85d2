package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	salonservicedomain "github.com/smallbiznis/barberdesk/internal/salonservice/domain"
)

func (s *Server) CreateService(c *gin.Context) {
	var req salonservicedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.salonSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": resp})
}

func (s *Server) ListServices(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.salonSvc.List(c.Request.Context(), salonservicedomain.ListRequest{Active: active})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func (s *Server) GetServiceByID(c *gin.Context) {
	resp, err := s.salonSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}
