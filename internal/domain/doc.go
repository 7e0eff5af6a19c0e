// Package domain defines the plant floor types shared by the generator, the
// command router and the wire protocol.
//
// Concept-oriented files (reactor.go, station.go, metrics.go, alert.go) hold plain
// data types and enums. No implementation code beyond small helpers on the enums.
package domain
