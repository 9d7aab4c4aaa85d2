package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/barberdesk/internal/audit"
	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/auth"
	"github.com/smallbiznis/barberdesk/internal/authorization"
	"github.com/smallbiznis/barberdesk/internal/cache"
	"github.com/smallbiznis/barberdesk/internal/config"
	"github.com/smallbiznis/barberdesk/internal/customer"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	"github.com/smallbiznis/barberdesk/internal/events"
	"github.com/smallbiznis/barberdesk/internal/invoice"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/receipt"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
	"github.com/smallbiznis/barberdesk/internal/observability"
	obslogger "github.com/smallbiznis/barberdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/barberdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/barberdesk/internal/observability/tracing"
	"github.com/smallbiznis/barberdesk/internal/product"
	productdomain "github.com/smallbiznis/barberdesk/internal/product/domain"
	"github.com/smallbiznis/barberdesk/internal/providers"
	"github.com/smallbiznis/barberdesk/internal/providers/pdf"
	"github.com/smallbiznis/barberdesk/internal/ratelimit"
	"github.com/smallbiznis/barberdesk/internal/salonservice"
	salonservicedomain "github.com/smallbiznis/barberdesk/internal/salonservice/domain"
	"github.com/smallbiznis/barberdesk/internal/staff"
	staffdomain "github.com/smallbiznis/barberdesk/internal/staff/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	audit.Module,
	authorization.Module,
	auth.Module,
	cache.Module,
	events.Module,
	ratelimit.Module,
	providers.Module,
	customer.Module,
	staff.Module,
	salonservice.Module,
	product.Module,
	invoice.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	invoicingCfg *config.InvoicingConfigHolder

	tokens   *auth.TokenManager
	authSvc  *auth.Service
	authzSvc authorization.Service
	limiter  *ratelimit.InvoiceWriteLimiter

	auditSvc    auditdomain.Service
	customerSvc customerdomain.Service
	staffSvc    staffdomain.Service
	salonSvc    salonservicedomain.Service
	productSvc  productdomain.Service
	invoiceSvc  invoicedomain.Service
	receipts    *receipt.Sender
	renderer    render.Renderer
	pdf         pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	InvoicingCfg *config.InvoicingConfigHolder

	Tokens   *auth.TokenManager
	AuthSvc  *auth.Service
	AuthzSvc authorization.Service
	Limiter  *ratelimit.InvoiceWriteLimiter `optional:"true"`

	AuditSvc    auditdomain.Service
	CustomerSvc customerdomain.Service
	StaffSvc    staffdomain.Service
	SalonSvc    salonservicedomain.Service
	ProductSvc  productdomain.Service
	InvoiceSvc  invoicedomain.Service
	Receipts    *receipt.Sender
	Renderer    render.Renderer
	PDF         pdf.Provider
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		invoicingCfg: p.InvoicingCfg,
		tokens:       p.Tokens,
		authSvc:      p.AuthSvc,
		authzSvc:     p.AuthzSvc,
		limiter:      p.Limiter,
		auditSvc:     p.AuditSvc,
		customerSvc:  p.CustomerSvc,
		staffSvc:     p.StaffSvc,
		salonSvc:     p.SalonSvc,
		productSvc:   p.ProductSvc,
		invoiceSvc:   p.InvoiceSvc,
		receipts:     p.Receipts,
		renderer:     p.Renderer,
		pdf:          p.PDF,
	}

	s.registerAuthRoutes()
	s.registerAPIRoutes()
	s.registerFallback()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")
	authGroup.POST("/token", s.IssueToken)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("")
	api.Use(s.Authenticate())

	// -------- Invoices --------
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	api.POST("/invoices",
		s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceCreate),
		s.InvoiceWriteRateLimit(),
		s.SubmissionGuard(),
		s.CreateInvoice,
	)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoiceByID)
	api.PUT("/invoices/:id",
		s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceUpdate),
		s.InvoiceWriteRateLimit(),
		s.UpdateInvoice,
	)
	api.GET("/invoices/:id/pdf", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.DownloadInvoicePDF)
	api.GET("/invoices/:id/receipt", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.RenderInvoiceReceipt)
	api.POST("/invoices/:id/email", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceSend), s.EmailInvoiceReceipt)

	// -------- Customers --------
	api.GET("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView), s.ListCustomers)
	api.POST("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerCreate), s.CreateCustomer)
	api.GET("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerView), s.GetCustomerByID)
	api.PATCH("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionCustomerUpdate), s.UpdateCustomer)

	// -------- Staff --------
	api.GET("/staff", s.authorize(authorization.ObjectStaff, authorization.ActionStaffView), s.ListStaff)
	api.POST("/staff", s.authorize(authorization.ObjectStaff, authorization.ActionStaffCreate), s.CreateStaff)
	api.GET("/staff/:id", s.authorize(authorization.ObjectStaff, authorization.ActionStaffView), s.GetStaffByID)

	// -------- Services --------
	api.GET("/services", s.authorize(authorization.ObjectService, authorization.ActionServiceView), s.ListServices)
	api.POST("/services", s.authorize(authorization.ObjectService, authorization.ActionServiceCreate), s.CreateService)
	api.GET("/services/:id", s.authorize(authorization.ObjectService, authorization.ActionServiceView), s.GetServiceByID)

	// -------- Products --------
	api.GET("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductView), s.ListProducts)
	api.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductCreate), s.CreateProduct)
	api.GET("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductView), s.GetProductByID)

	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
