// Package shipment models a Package (a single parcel on a Route) and the
// DeliveryProof captured when it reaches a terminal state.
//
// Package lifecycle:
//
//	Pending ──┬──> Delivered
//	          └──> Failed
//
// Delivered and Failed are terminal. A second transition attempt is rejected
// with an InvalidTransitionError rather than ignored, so that a package can never
// be counted twice. Every successful transition yields exactly one DeliveryProof,
// which is immutable once created.
package shipment
