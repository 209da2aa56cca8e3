package notification

import (
	"errors"
	"time"

	"github.com/rickgao/supportdesk/internal/model"
	"github.com/rickgao/supportdesk/internal/router"
)

// ErrMissingID is returned for server notifications without an ID.
var ErrMissingID = errors.New("notification has no id")

// Clock returns the current time; overridden in tests.
type Clock func() time.Time

// Bind registers the handlers that turn inbound events into notifications
// and returns a function that removes them again.
func Bind(r *router.Router, s *Store, clock Clock) (unbind func()) {
	if clock == nil {
		clock = time.Now
	}

	listeners := []*router.Listener{
		router.OnJSON(r, model.EventNotification, func(n Notification, _ router.Event) error {
			if n.ID == "" {
				return ErrMissingID
			}
			if n.Timestamp.IsZero() {
				n.Timestamp = clock()
			}
			s.Add(n)
			return nil
		}),
		router.OnJSON(r, model.EventEscalation, func(esc model.Escalation, _ router.Event) error {
			s.Add(FromEscalation(esc, clock()))
			return nil
		}),
		router.OnJSON(r, model.EventNewInquiry, func(inq model.Inquiry, _ router.Event) error {
			s.Add(FromNewInquiry(inq, clock()))
			return nil
		}),
		router.OnJSON(r, model.EventNewResponse, func(resp model.Response, _ router.Event) error {
			s.Add(FromNewResponse(resp, clock()))
			return nil
		}),
	}

	return func() {
		for _, l := range listeners {
			r.Off(l.Event(), l)
		}
	}
}
