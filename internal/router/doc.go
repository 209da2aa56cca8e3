// Package router implements the Event Router component.
//
// The Event Router:
//   - Maps inbound event names to ordered lists of listeners
//   - Invokes every listener for an event synchronously, in registration order
//   - Isolates listener failures (errors and panics) from each other and from the transport
//   - Knows nothing about payload shapes; OnJSON adds typed decoding on top
package router
