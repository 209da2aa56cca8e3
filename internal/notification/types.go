package notification

import "time"

// DefaultMaxEntries is the collection bound used when none is configured.
const DefaultMaxEntries = 100

// Type tags what a notification is about.
type Type string

const (
	TypeEscalation   Type = "ESCALATION"
	TypeNewInquiry   Type = "NEW_INQUIRY"
	TypeNewResponse  Type = "NEW_RESPONSE"
	TypeStatusChange Type = "STATUS_CHANGE"
)

// EntityType is the kind of entity a notification refers to.
type EntityType string

const (
	EntityInquiry  EntityType = "inquiry"
	EntityResponse EntityType = "response"
)

// Notification is one user-facing alert. Only Read changes after creation,
// and only through the Store.
type Notification struct {
	ID         string     `json:"id"`
	Type       Type       `json:"type"`
	Message    string     `json:"message"`
	EntityID   int64      `json:"entityId"`
	EntityType EntityType `json:"entityType"`
	Timestamp  time.Time  `json:"timestamp"`
	Read       bool       `json:"read"`
}

// Ref identifies the entity a notification points at.
type Ref struct {
	ID   int64      `json:"entityId"`
	Type EntityType `json:"entityType"`
}

// Ref returns the referenced entity.
func (n Notification) Ref() Ref {
	return Ref{ID: n.EntityID, Type: n.EntityType}
}
