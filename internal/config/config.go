package config

// Config represents the application configuration
type Config struct {
	Telegram TelegramConfig
	Database DatabaseConfig
	Panel    PanelConfig
	Vless    VlessConfig
	Pricing  PricingConfig
	Sweep    SweepConfig
	LogLevel string
}

// TelegramConfig holds the Telegram bot configuration
type TelegramConfig struct {
	Token    string
	AdminIDs []int64
}

// DatabaseConfig holds the PostgreSQL configuration
type DatabaseConfig struct {
	URL string
}

// PanelConfig holds the configuration for the 3x-ui panel
type PanelConfig struct {
	APIURL    string
	User      string
	Password  string
	InboundID int
}

// VlessConfig holds the static parameters embedded into connection links
type VlessConfig struct {
	ServerIP  string
	Port      int
	PublicKey string
	SNI       string
	ShortID   string
}

// PricingConfig holds the subscription pricing
type PricingConfig struct {
	MonthlyPrice float64
	WarningDays  int
}

// SweepConfig holds the expiry reconciler settings
type SweepConfig struct {
	IntervalSeconds int
}

// DailyRate returns the per-day price derived from the monthly price,
// rounded to kopecks.
func (p PricingConfig) DailyRate() float64 {
	return float64(int(p.MonthlyPrice/30*100+0.5)) / 100
}
