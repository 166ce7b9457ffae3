/*
Package observability turns engine lifecycle hooks into metrics and logs.

Metrics exposes Prometheus collectors for fetches, compactions, stalls, rejected
frames and buffer occupancy. LogHooks mirrors the same events to a slog.Logger.
Combine merges several hook sets so both can be installed on one Player.
*/
package observability
