package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"flashvpn-bot/internal/constants"
)

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("log_level", "info")
	v.SetDefault("XUI_INBOUND_ID", 1)
	v.SetDefault("MONTHLY_PRICE", constants.DefaultMonthlyPrice)
	v.SetDefault("WARNING_DAYS", constants.DefaultWarningDays)
	v.SetDefault("SWEEP_INTERVAL_SECONDS", constants.DefaultSweepIntervalSeconds)
	v.SetDefault("VLESS_PORT", 443)

	// Define environment variables
	v.BindEnv("TG_TOKEN")
	v.BindEnv("TG_ADMIN_IDS")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("XUI_API_URL")
	v.BindEnv("XUI_USER")
	v.BindEnv("XUI_PASSWORD")
	v.BindEnv("XUI_INBOUND_ID")
	v.BindEnv("MONTHLY_PRICE")
	v.BindEnv("WARNING_DAYS")
	v.BindEnv("SWEEP_INTERVAL_SECONDS")
	v.BindEnv("VLESS_SERVER_IP")
	v.BindEnv("VLESS_PORT")
	v.BindEnv("VLESS_PUBLIC_KEY")
	v.BindEnv("VLESS_SNI")
	v.BindEnv("VLESS_SHORT_ID")

	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		Telegram: TelegramConfig{
			Token: strings.TrimSpace(v.GetString("TG_TOKEN")),
		},
		Database: DatabaseConfig{
			URL: strings.TrimSpace(v.GetString("DATABASE_URL")),
		},
		Panel: PanelConfig{
			APIURL:    strings.TrimRight(strings.TrimSpace(v.GetString("XUI_API_URL")), "/"),
			User:      strings.TrimSpace(v.GetString("XUI_USER")),
			Password:  strings.TrimSpace(v.GetString("XUI_PASSWORD")),
			InboundID: v.GetInt("XUI_INBOUND_ID"),
		},
		Vless: VlessConfig{
			ServerIP:  strings.TrimSpace(v.GetString("VLESS_SERVER_IP")),
			Port:      v.GetInt("VLESS_PORT"),
			PublicKey: strings.TrimSpace(v.GetString("VLESS_PUBLIC_KEY")),
			SNI:       strings.TrimSpace(v.GetString("VLESS_SNI")),
			ShortID:   strings.TrimSpace(v.GetString("VLESS_SHORT_ID")),
		},
		Pricing: PricingConfig{
			MonthlyPrice: v.GetFloat64("MONTHLY_PRICE"),
			WarningDays:  v.GetInt("WARNING_DAYS"),
		},
		Sweep: SweepConfig{
			IntervalSeconds: v.GetInt("SWEEP_INTERVAL_SECONDS"),
		},
	}

	// Parse admin IDs
	adminIDsStr := v.GetString("TG_ADMIN_IDS")
	if adminIDsStr != "" {
		adminIDsSlice := strings.Split(adminIDsStr, ",")
		adminIDs := make([]int64, 0, len(adminIDsSlice))
		for _, idStr := range adminIDsSlice {
			var id int64
			if _, err := fmt.Sscanf(strings.TrimSpace(idStr), "%d", &id); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
		cfg.Telegram.AdminIDs = adminIDs
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return errors.New("TG_TOKEN is required")
	}
	if len(cfg.Telegram.AdminIDs) == 0 {
		return errors.New("TG_ADMIN_IDS is required")
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.Panel.User == "" {
		return errors.New("panel user is required")
	}
	if cfg.Panel.Password == "" {
		return errors.New("panel password is required")
	}
	if cfg.Panel.APIURL == "" {
		return errors.New("panel API URL is required")
	}
	if cfg.Pricing.MonthlyPrice <= 0 {
		return errors.New("MONTHLY_PRICE must be positive")
	}
	if cfg.Sweep.IntervalSeconds <= 0 {
		return errors.New("SWEEP_INTERVAL_SECONDS must be positive")
	}
	return nil
}
