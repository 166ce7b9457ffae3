/*
Package orrery plays back long physical-simulation runs that a remote producer
streams in chunks.

A Player buffers the frames it fetches, advances a playback cursor at the
session's fixed frame rate, keeps a bounded trail behind every entity and pushes
draw instructions to a RenderAdapter. Rendering is decoupled from the tick rate:
adapters receive positions, trail segment add/remove notices and an optional
follow target, and redraw on their own schedule.

# Buffering

Each tick the player checks how much playback time is left in the buffer. When
it drops to the low watermark a single asynchronous fetch is issued; at most one
fetch is in flight per session. Once enough frames have been played and no
fetch is outstanding, the played prefix is compacted away so memory stays bounded
on arbitrarily long runs.

Fetch failures are transient. The buffer is left untouched and the next attempt
waits for an exponential backoff.

# Usage

	cfg := domain.SessionConfig{SessionID: "abc", FPS: 30, YearsPerFrame: 0.01, EntityCount: 9}
	fetcher := http.NewClient("http://localhost:5000")

	player, err := orrery.New(cfg, fetcher,
		orrery.WithRenderer(renderer),
		orrery.WithFollow(true),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer player.Close()

	if err := player.Start(ctx); err != nil {
		log.Fatal(err)
	}
	<-player.Done()
*/
package orrery
