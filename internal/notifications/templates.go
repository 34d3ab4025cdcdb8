package notifications

import "fmt"

// TypeCode is the closed enumeration of notification kinds produced by the
// messaging pipeline. New codes must be added here and to Body.
type TypeCode int

const (
	TypeNewMessage   TypeCode = 1
	TypeNewBroadcast TypeCode = 2
	TypePaidMessage  TypeCode = 3
)

// Known reports whether the code belongs to the enumeration.
func (t TypeCode) Known() bool {
	switch t {
	case TypeNewMessage, TypeNewBroadcast, TypePaidMessage:
		return true
	}
	return false
}

// Body renders the notification text for the code.
func (t TypeCode) Body(actorID int64) string {
	switch t {
	case TypeNewMessage:
		return fmt.Sprintf("You have a new message from user %d", actorID)
	case TypeNewBroadcast:
		return fmt.Sprintf("User %d sent a new post to subscribers", actorID)
	case TypePaidMessage:
		return fmt.Sprintf("User %d sent you a pay-to-unlock message", actorID)
	default:
		return ""
	}
}

// ForSend picks the code for a direct message based on its price.
func ForSend(price int64) TypeCode {
	if price > 0 {
		return TypePaidMessage
	}
	return TypeNewMessage
}
