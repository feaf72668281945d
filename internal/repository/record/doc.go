// Package record implements crash-persistent checkpointing of the
// controller's core state.
//
// The Storage interface models the byte-addressed non-volatile collaborator,
// which only ever receives or returns a whole opaque image. The codec maps
// the domain Record to a fixed-offset little-endian layout guarded by a
// one-byte sentinel, and the Store recovers blank or erased storage by a
// full local reset.
package record
