// Package audit implements async event dispatching for security-relevant
// operations.
//
//   - [Event] is a structured record with timestamp, type, user and outcome.
//   - [Sink] is the consumer interface (JSON writer, channel, no-op).
//   - [Dispatcher] is a buffered relay; Emit never blocks the caller and
//     counts drops when the buffer is full. A nil *Dispatcher is valid and
//     discards everything.
//
// Which events to emit is decided by the auth flows, not here.
package audit
