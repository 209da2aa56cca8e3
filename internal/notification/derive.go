package notification

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rickgao/supportdesk/internal/model"
)

// EscalationID identifies an escalation notification. The arrival time is
// part of the identity so repeated escalations of one inquiry stay distinct.
func EscalationID(inquiryID int64, arrivedAt time.Time) string {
	return "escalation-" + strconv.FormatInt(inquiryID, 10) + "-" + strconv.FormatInt(arrivedAt.UnixMilli(), 10)
}

// NewInquiryID identifies a new-inquiry notification. It is stable so
// re-delivery of the same event dedupes.
func NewInquiryID(inquiryID int64) string {
	return "new-inquiry-" + strconv.FormatInt(inquiryID, 10)
}

// NewResponseID identifies a new-response notification.
func NewResponseID(responseID int64) string {
	return "new-response-" + strconv.FormatInt(responseID, 10)
}

// FromEscalation builds the notification for an escalation arriving at at.
func FromEscalation(esc model.Escalation, at time.Time) Notification {
	return Notification{
		ID:         EscalationID(esc.Inquiry.ID, at),
		Type:       TypeEscalation,
		Message:    fmt.Sprintf("Inquiry #%d \"%s\" has been escalated: %s", esc.Inquiry.ID, esc.Inquiry.Subject, esc.Reason),
		EntityID:   esc.Inquiry.ID,
		EntityType: EntityInquiry,
		Timestamp:  at,
	}
}

// FromNewInquiry builds the notification for a newly created inquiry.
func FromNewInquiry(inq model.Inquiry, at time.Time) Notification {
	return Notification{
		ID:         NewInquiryID(inq.ID),
		Type:       TypeNewInquiry,
		Message:    fmt.Sprintf("New inquiry #%d: \"%s\"", inq.ID, inq.Subject),
		EntityID:   inq.ID,
		EntityType: EntityInquiry,
		Timestamp:  at,
	}
}

// FromNewResponse builds the notification for a new response. It refers to
// the parent inquiry, not the response itself.
func FromNewResponse(resp model.Response, at time.Time) Notification {
	return Notification{
		ID:         NewResponseID(resp.ID),
		Type:       TypeNewResponse,
		Message:    fmt.Sprintf("New response for inquiry #%d", resp.InquiryID),
		EntityID:   resp.InquiryID,
		EntityType: EntityInquiry,
		Timestamp:  at,
	}
}
