package models

// ConversationState represents where a user is in a multi-step dialog
type ConversationState int

const (
	// Default means no dialog is in progress
	Default ConversationState = iota
	// AwaitingTopUpAmount means the next plain message is a deposit amount
	AwaitingTopUpAmount
)

// UserState holds the transient dialog state of one user
type UserState struct {
	State ConversationState
}
