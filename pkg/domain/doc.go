/*
Package domain contains the core models of the Orrery playback engine.

It defines the immutable data that flows from a producer to a renderer (entity snapshots and
frames), the read-only session configuration agreed with the producer at start, and the value
types the engine reports back to its host (trail segments, playback status, lifecycle events).
This package is kept pure and free of external dependencies like I/O or timers, following
Hexagonal Architecture principles.

# Key Entities

  - EntitySnapshot: One tracked body at one simulated instant (identity, position, velocity, looks).
  - Frame: All tracked bodies at one simulated instant.
  - SessionConfig: Producer session id and cadence (fps, years per frame), read-only once started.
  - TrailSegment: A line between two consecutive positions of one entity.
  - Status: A point-in-time view of a playback session for hosts and control surfaces.
*/
package domain
