package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
)

type customerPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// customerPatch distinguishes omitted fields from empty ones.
type customerPatch struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

type customerQuery struct {
	pagination.Pagination
	Name          string `form:"name"`
	Phone         string `form:"phone"`
	MinTotalSpent string `form:"min_total_spent"`
	CreatedFrom   string `form:"created_from"`
	CreatedTo     string `form:"created_to"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var body customerPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest(body))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var body customerPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.customerSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), customerdomain.UpdateCustomerRequest(body))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var q customerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := customerdomain.ListCustomerRequest{
		PageToken: strings.TrimSpace(q.PageToken),
		PageSize:  q.PageSize,
		Name:      q.Name,
		Phone:     q.Phone,
	}
	var err error
	if req.MinTotalSpent, err = optional(q.MinTotalSpent, func(v string) (float64, error) {
		return strconv.ParseFloat(v, 64)
	}); err != nil {
		AbortWithError(c, newValidationError("min_total_spent", "invalid_min_total_spent", "invalid min_total_spent"))
		return
	}
	if req.CreatedFrom, err = parseOptionalTime(q.CreatedFrom, false); err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	if req.CreatedTo, err = parseOptionalTime(q.CreatedTo, true); err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp.Customers, "page_info": resp.PageInfo})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	found, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": found})
}
