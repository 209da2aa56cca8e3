package model

// Inbound event names.
const (
	EventNewInquiry     = "new_inquiry"
	EventInquiryUpdated = "inquiry_updated"
	EventNewResponse    = "new_response"
	EventEscalation     = "escalation"
	EventNotification   = "notification"
)

// Outbound event names.
const (
	EventJoin  = "join"
	EventLeave = "leave"
)

// RoomAgents is the room that receives new inquiries and escalations.
const RoomAgents = "agents"

// InquiryType classifies an inquiry.
type InquiryType string

const (
	InquiryTechnical      InquiryType = "technical"
	InquiryBilling        InquiryType = "billing"
	InquiryGeneral        InquiryType = "general"
	InquiryFeatureRequest InquiryType = "feature_request"
	InquiryComplaint      InquiryType = "complaint"
	InquiryOther          InquiryType = "other"
)

// InquiryStatus is the workflow state of an inquiry.
type InquiryStatus string

const (
	StatusNew              InquiryStatus = "new"
	StatusInProgress       InquiryStatus = "in_progress"
	StatusAwaitingCustomer InquiryStatus = "awaiting_customer"
	StatusEscalated        InquiryStatus = "escalated"
	StatusResolved         InquiryStatus = "resolved"
	StatusClosed           InquiryStatus = "closed"
)

// User is the authenticated console user.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Inquiry is a customer support request (payload of new_inquiry and inquiry_updated).
type Inquiry struct {
	ID               int64         `json:"id"`
	Subject          string        `json:"subject"`
	Content          string        `json:"content"`
	CustomerID       *int64        `json:"customer_id"` // nil for anonymous inquiries
	InquiryType      InquiryType   `json:"inquiry_type"`
	ConfidenceScore  float64       `json:"confidence_score"` // Classifier confidence (0-1)
	Status           InquiryStatus `json:"status"`
	Escalated        bool          `json:"escalated"`
	EscalationReason *string       `json:"escalation_reason"`
	CreatedAt        string        `json:"created_at"`
}

// Response is a reply to an inquiry (payload of new_response).
type Response struct {
	ID          int64  `json:"id"`
	Content     string `json:"content"`
	InquiryID   int64  `json:"inquiry_id"`
	AgentID     *int64 `json:"agent_id"` // nil when generated automatically
	IsAutomated bool   `json:"is_automated"`
	CreatedAt   string `json:"created_at"`
}

// Escalation is the payload of an escalation event.
type Escalation struct {
	Inquiry Inquiry `json:"inquiry"`
	Reason  string  `json:"reason"`
}

// RoomRequest is the payload of join and leave requests.
type RoomRequest struct {
	Room string `json:"room"`
}
