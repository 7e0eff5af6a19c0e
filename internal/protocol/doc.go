// Package protocol is the JSON wire format between the hub and dashboards.
//
// Inbound messages are `{"type": ..., "payload": {...}}` objects decoded into
// a closed set of Command variants; anything that does not match a variant's
// schema is rejected as a protocol error. Outbound messages are
// `{"type": ..., "data": {...}}` envelopes built by the constructors in
// outbound.go.
package protocol
