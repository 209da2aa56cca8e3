// Package notification implements the Notification Store component.
//
// The store is a bounded, newest-first collection of user-facing
// notifications derived from inbound events. It rejects duplicate IDs,
// evicts from the tail when full, and keeps the unread count equal to the
// number of unread entries after every mutation.
package notification
