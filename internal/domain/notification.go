package domain

import "time"

// Notification status values. Status only controls how prominently the
// client renders the record, never whether it is delivered.
const (
	NotificationStatusNone      = "none"
	NotificationStatusActive    = "active"
	NotificationStatusImportant = "important"
)

// NotificationTypeInfo is the default type for records created without an
// explicit classifier.
const NotificationTypeInfo = "info"

// Notification is one in-app message instance for exactly one recipient.
// Broadcast and batch sends create N independent records for N recipients.
type Notification struct {
	NotificationID string            `json:"id" dynamodbav:"notification_id"`
	UserID         string            `json:"user_id" dynamodbav:"user_id"`
	Title          string            `json:"title" dynamodbav:"title"`
	Body           string            `json:"body" dynamodbav:"body"`
	Data           map[string]string `json:"data,omitempty" dynamodbav:"data"`
	Status         string            `json:"status" dynamodbav:"status"`
	Type           string            `json:"type" dynamodbav:"type"`
	IsRead         bool              `json:"is_read" dynamodbav:"is_read"`
	CreatedAt      time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time         `json:"updated" dynamodbav:"updated_at"`
}
