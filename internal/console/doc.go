// Package console wires the realtime connection, event router and
// notification store into one agent session.
//
// A Console is created once per process. Initialize connects with the
// auth provider's token and binds the notification handlers; Disconnect
// tears the connection down. Room membership is restored on every connect
// event, because the server forgets it when a socket closes.
package console
