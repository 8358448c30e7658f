package permissions

import (
	"github.com/sirupsen/logrus"
)

// AccessType represents the access level of a user
type AccessType int

const (
	// Member represents a regular bot user
	Member AccessType = iota
	// Admin represents the operator
	Admin
)

// Controller resolves user access levels
type Controller struct {
	adminIDs map[int64]bool
	logger   *logrus.Logger
}

// NewController creates a new permission controller
func NewController(adminIDs []int64, logger *logrus.Logger) *Controller {
	adminIDMap := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		adminIDMap[id] = true
	}

	logger.Infof("Initialized permission controller with %d admins", len(adminIDs))

	return &Controller{
		adminIDs: adminIDMap,
		logger:   logger,
	}
}

// GetAccessType determines the access type of a user
func (c *Controller) GetAccessType(userID int64) AccessType {
	if c.IsAdmin(userID) {
		return Admin
	}
	return Member
}

// IsAdmin checks if a user is an admin
func (c *Controller) IsAdmin(userID int64) bool {
	isAdmin := c.adminIDs[userID]
	c.logger.Debugf("Checking if user %d is admin: %v", userID, isAdmin)
	return isAdmin
}
