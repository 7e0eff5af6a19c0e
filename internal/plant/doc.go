// Package plant simulates the chemical plant floor.
//
// Floor is the logical status table (which reactor is mixing, which station is
// in maintenance). Generator draws fresh telemetry for every call from
// status-dependent bands, so a snapshot is always internally consistent and
// nothing but the status table is shared between goroutines. In a real
// deployment Generator is the seam where sensor ingestion would plug in.
package plant
