// Package kernel provides the shared domain primitives of the lastmile engine.
//
// The package includes:
//   - UUID: identity of every entity, wrapping google/uuid
//   - GeoPoint: a validated WGS84 coordinate pair with a service-area check and haversine distance
//   - Date: a calendar day used for due dates and report ranges
//   - Actor and Role: who requested a transition
//
// All types are immutable values and safe for concurrent use.
package kernel
