package constants

const (
	// Credential naming constants
	CredentialLabelPrefix = "tg_"

	// Duration constants
	MillisecondsInDay = 24 * 60 * 60 * 1000
	DaysInMonth       = 30

	// Network constants
	DefaultTimeout          = 10
	DefaultRetryCount       = 3
	DefaultRetryWaitTime    = 2
	DefaultRetryMaxWaitTime = 10

	// Cache constants
	SessionCacheExpiration      = 30 // minutes
	SessionCacheCleanupInterval = 10 // minutes

	// Pricing constants
	DefaultMonthlyPrice = 150
	DefaultWarningDays  = 3

	// Reconciler constants
	DefaultSweepIntervalSeconds = 60

	// Validation constants
	MaxSubscriptionDays = 3650

	// Formatting constants
	TimestampFormat = "2006-01-02 15:04:05"
	DateFormat      = "2006-01-02"
)
