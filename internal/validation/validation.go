package validation

import (
	"fmt"
	"strconv"
	"strings"

	"flashvpn-bot/internal/constants"
)

// ParseAmount validates and parses a deposit amount entered by a user
func ParseAmount(amountStr string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format: must be a number")
	}

	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	return amount, nil
}

// ParseDays validates and parses a subscription duration in days
func ParseDays(daysStr string) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(daysStr))
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: must be a number")
	}

	if days < 1 {
		return 0, fmt.Errorf("duration must be at least 1 day")
	}

	if days > constants.MaxSubscriptionDays {
		return 0, fmt.Errorf("duration cannot exceed %d days", constants.MaxSubscriptionDays)
	}

	return days, nil
}
