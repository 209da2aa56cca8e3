// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Owns one authenticated WebSocket connection to the support backend
//   - Reconnects with a fixed delay up to a maximum number of attempts, then fails terminally
//   - Decodes inbound frames and hands them to the Event Router
//   - Emits connect, disconnect, and error lifecycle events through the same router
//   - Sends room join/leave requests over the live connection
package connection
