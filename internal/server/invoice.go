package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/barberdesk/internal/config"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
	obslogger "github.com/smallbiznis/barberdesk/internal/observability/logger"
	"github.com/smallbiznis/barberdesk/internal/providers/pdf"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
)

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set(obslogger.KeyInvoiceID, resp.ID)
	c.Set(obslogger.KeyInvoiceTotal, resp.Total)
	c.JSON(http.StatusCreated, gin.H{"success": true, "invoice": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(obslogger.KeyInvoiceID, id)

	var req invoicedomain.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set(obslogger.KeyInvoiceTotal, resp.Total)

	c.JSON(http.StatusOK, gin.H{"success": true, "invoice": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		CustomerID string `form:"customer_id"`
		DateFrom   string `form:"date_from"`
		DateTo     string `form:"date_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dateFrom, err := parseOptionalTime(query.DateFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("date_from", "invalid_date_from", "invalid date_from"))
		return
	}
	dateTo, err := parseOptionalTime(query.DateTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("date_to", "invalid_date_to", "invalid date_to"))
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status:     strings.TrimSpace(query.Status),
		CustomerID: strings.TrimSpace(query.CustomerID),
		DateFrom:   dateFrom,
		DateTo:     dateTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "invoices": resp.Invoices, "page_info": resp.PageInfo})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(obslogger.KeyInvoiceID, id)

	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "invoice": resp})
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(obslogger.KeyInvoiceID, id)

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := pdf.Generate(c.Request.Context(), s.pdf, invoice, s.branding())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if reader == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, invoice.ID))
	c.Data(http.StatusOK, "application/pdf", body)
}

func (s *Server) RenderInvoiceReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(obslogger.KeyInvoiceID, id)

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	html, err := s.renderer.RenderHTML(invoice, s.branding())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

type emailReceiptRequest struct {
	To string `json:"to"`
}

func (s *Server) EmailInvoiceReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	c.Set(obslogger.KeyInvoiceID, id)

	var req emailReceiptRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	sentTo, err := s.receipts.Send(c.Request.Context(), id, req.To)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"invoice_id": id, "sent_to": sentTo}})
}

func (s *Server) branding() render.Branding {
	if s.invoicingCfg == nil {
		return render.BrandingFrom(config.DefaultInvoicingConfig())
	}
	return render.BrandingFrom(s.invoicingCfg.Get())
}
