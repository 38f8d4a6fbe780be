package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoicingConfig controls rent invoice generation.
type InvoicingConfig struct {
	InvoiceType         string `mapstructure:"invoiceType"`
	InvoiceNumberDigits int    `mapstructure:"invoiceNumberDigits"`
	RecordEmptyRuns     bool   `mapstructure:"recordEmptyRuns"`
	LockTTLSeconds      int    `mapstructure:"lockTTLSeconds"`
}

func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		InvoiceType:         "Monthly Rent",
		InvoiceNumberDigits: 5,
		RecordEmptyRuns:     true,
		LockTTLSeconds:      120,
	}
}

type InvoicingConfigHolder struct {
	current atomic.Value // holds InvoicingConfig
}

// NewStaticInvoicingConfigHolder returns a holder that never reloads.
func NewStaticInvoicingConfigHolder(cfg InvoicingConfig) *InvoicingConfigHolder {
	holder := &InvoicingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewInvoicingConfigHolder(log *zap.Logger) (*InvoicingConfigHolder, error) {
	log = log.Named("config.invoicing")

	v := viper.New()
	v.SetConfigName("invoicing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/collections")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COLLECTIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoicingConfig()
	v.SetDefault("invoicing.invoiceType", defaults.InvoiceType)
	v.SetDefault("invoicing.invoiceNumberDigits", defaults.InvoiceNumberDigits)
	v.SetDefault("invoicing.recordEmptyRuns", defaults.RecordEmptyRuns)
	v.SetDefault("invoicing.lockTTLSeconds", defaults.LockTTLSeconds)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg InvoicingConfig
	if err := v.UnmarshalKey("invoicing", &cfg); err != nil {
		return nil, err
	}
	if err := validateInvoicingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticInvoicingConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated InvoicingConfig
		if err := v.UnmarshalKey("invoicing", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateInvoicingConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *InvoicingConfigHolder) Get() InvoicingConfig {
	if h == nil {
		return DefaultInvoicingConfig()
	}
	return h.current.Load().(InvoicingConfig)
}

func validateInvoicingConfig(cfg InvoicingConfig) error {
	if strings.TrimSpace(cfg.InvoiceType) == "" {
		return errors.New("invoicing.invoiceType cannot be empty")
	}
	if cfg.InvoiceNumberDigits < 1 || cfg.InvoiceNumberDigits > 18 {
		return errors.New("invoicing.invoiceNumberDigits must be between 1 and 18")
	}
	if cfg.LockTTLSeconds <= 0 {
		return errors.New("invoicing.lockTTLSeconds must be positive")
	}
	return nil
}
