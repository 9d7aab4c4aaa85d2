package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/barberdesk/internal/config"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"go.uber.org/zap"
)

const (
	invoiceKeyPrefix  = "barberdesk:invoice:"
	defaultInvoiceTTL = 5 * time.Minute
)

// InvoiceCache holds denormalized invoice reads. Misses and failures both
// fall through to the database.
type InvoiceCache interface {
	Get(ctx context.Context, id string) (*invoicedomain.InvoiceResponse, bool)
	Set(ctx context.Context, invoice *invoicedomain.InvoiceResponse)
	Delete(ctx context.Context, id string)
}

type redisInvoiceCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewInvoiceCache(client *redis.Client, cfg config.Config, log *zap.Logger) InvoiceCache {
	if client == nil {
		return NoopInvoiceCache{}
	}
	ttl := cfg.Redis.InvoiceTTL
	if ttl <= 0 {
		ttl = defaultInvoiceTTL
	}
	return &redisInvoiceCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("invoice.cache"),
	}
}

func (c *redisInvoiceCache) Get(ctx context.Context, id string) (*invoicedomain.InvoiceResponse, bool) {
	data, err := c.client.Get(ctx, invoiceKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("invoice cache get failed", zap.String("invoice_id", id), zap.Error(err))
		return nil, false
	}

	var invoice invoicedomain.InvoiceResponse
	if err := json.Unmarshal(data, &invoice); err != nil {
		c.log.Warn("invoice cache entry corrupt", zap.String("invoice_id", id), zap.Error(err))
		return nil, false
	}
	return &invoice, true
}

func (c *redisInvoiceCache) Set(ctx context.Context, invoice *invoicedomain.InvoiceResponse) {
	if invoice == nil || invoice.ID == "" {
		return
	}
	data, err := json.Marshal(invoice)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, invoiceKeyPrefix+invoice.ID, data, c.ttl).Err(); err != nil {
		c.log.Warn("invoice cache set failed", zap.String("invoice_id", invoice.ID), zap.Error(err))
	}
}

func (c *redisInvoiceCache) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, invoiceKeyPrefix+id).Err(); err != nil {
		c.log.Warn("invoice cache delete failed", zap.String("invoice_id", id), zap.Error(err))
	}
}

type NoopInvoiceCache struct{}

func (NoopInvoiceCache) Get(context.Context, string) (*invoicedomain.InvoiceResponse, bool) {
	return nil, false
}

func (NoopInvoiceCache) Set(context.Context, *invoicedomain.InvoiceResponse) {}

func (NoopInvoiceCache) Delete(context.Context, string) {}
