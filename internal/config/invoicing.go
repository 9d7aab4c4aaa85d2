package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// InvoicingConfig is the shop-level invoicing policy, reloadable at runtime.
type InvoicingConfig struct {
	IDPrefix       string   `mapstructure:"idPrefix"`
	IDLength       int      `mapstructure:"idLength"`
	PaymentMethods []string `mapstructure:"paymentMethods"`
	DefaultStatus  string   `mapstructure:"defaultStatus"`

	// Receipt branding.
	ShopName     string `mapstructure:"shopName"`
	Currency     string `mapstructure:"currency"`
	PrimaryColor string `mapstructure:"primaryColor"`
	FooterNotes  string `mapstructure:"footerNotes"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		IDPrefix:       "INV-",
		IDLength:       8,
		PaymentMethods: []string{"cash", "card", "bank_transfer", "e_wallet", "other"},
		DefaultStatus:  "paid",
		ShopName:       "Barberdesk",
		Currency:       "USD",
		PrimaryColor:   "#111827",
	}
}

// AllowsPaymentMethod reports whether method is accepted. An empty list accepts anything.
func (c InvoicingConfig) AllowsPaymentMethod(method string) bool {
	if len(c.PaymentMethods) == 0 {
		return true
	}
	method = strings.ToLower(strings.TrimSpace(method))
	for _, allowed := range c.PaymentMethods {
		if strings.ToLower(strings.TrimSpace(allowed)) == method {
			return true
		}
	}
	return false
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

// NewStaticInvoicingConfigHolder pins a fixed policy; tests use it.
func NewStaticInvoicingConfigHolder(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewInvoicingConfigHolder() (*InvoicingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/barberdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BARBERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingConfig()
	v.SetDefault("invoicing.idPrefix", defaults.IDPrefix)
	v.SetDefault("invoicing.idLength", defaults.IDLength)
	v.SetDefault("invoicing.paymentMethods", defaults.PaymentMethods)
	v.SetDefault("invoicing.defaultStatus", defaults.DefaultStatus)
	v.SetDefault("invoicing.shopName", defaults.ShopName)
	v.SetDefault("invoicing.currency", defaults.Currency)
	v.SetDefault("invoicing.primaryColor", defaults.PrimaryColor)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticInvoicingConfigHolder(cfg)

	if fileLoaded {
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated InvoicingConfig
			if err := v.UnmarshalKey("invoicing", &updated); err != nil {
				log.Printf("[invoicing-config] reload failed: %v", err)
				return
			}
			if err := validateInvoicingConfig(updated); err != nil {
				log.Printf("[invoicing-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[invoicing-config] reloaded from %s", e.Name)
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	if h == nil {
		return DefaultInvoicingConfig()
	}
	cfg, ok := h.current.Load().(InvoicingConfig)
	if !ok {
		return DefaultInvoicingConfig()
	}
	return cfg
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if strings.TrimSpace(cfg.IDPrefix) == "" {
		return errors.New("invoicing.idPrefix cannot be empty")
	}
	if cfg.IDLength < 6 || cfg.IDLength > 24 {
		return errors.New("invoicing.idLength must be between 6 and 24")
	}
	switch cfg.DefaultStatus {
	case "paid", "pending", "cancelled":
	default:
		return errors.New("invoicing.defaultStatus must be paid, pending or cancelled")
	}
	return nil
}
