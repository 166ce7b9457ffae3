/*
Package ports defines the driven ports (interfaces) for the Orrery playback engine.

These interfaces decouple the playback core from the producer transport and from the
rendering technology, allowing the engine to work with HTTP, websocket, Redis or archived
sources and with any renderer that can accept push-style draw instructions.

# Key Interfaces

  - Fetcher: Delivers the next ordered chunk of frames for a producer session.
  - SessionStarter: Asks a producer to start a simulation and returns its session configuration.
  - RenderAdapter: Receives per-tick positions, trail segment add/remove notices and follow targets.
  - Clock: Source of real time, replaceable in tests.
*/
package ports
