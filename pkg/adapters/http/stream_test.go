package http_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	"github.com/aretw0/orrery/internal/logging"
	orreryhttp "github.com/aretw0/orrery/pkg/adapters/http"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamManager_DropsForSlowSubscribers(t *testing.T) {
	sm := orreryhttp.NewStreamManager()
	ch, cancel := sm.Subscribe("s1")

	for i := 0; i < 100; i++ {
		sm.Broadcast("s1", "tick")
	}
	assert.Len(t, ch, cap(ch), "broadcast never blocks")

	cancel()
	cancel()
	assert.Zero(t, sm.Subscribers("s1"))
}

func TestStreamRenderer(t *testing.T) {
	sm := orreryhttp.NewStreamManager()
	r := orreryhttp.NewStreamRenderer("s1", sm)

	r.OnFrame(domain.Frame{{ID: "a"}})

	ch, cancel := sm.Subscribe("s1")
	defer cancel()
	assert.Empty(t, ch, "nothing is published without subscribers")

	r.OnTrailSegmentAdded("a", domain.TrailSegment{EntityID: "a", Seq: 7})
	r.OnCentroid(domain.Vec3{X: 2})

	var u orreryhttp.Update
	require.NoError(t, json.Unmarshal([]byte(<-ch), &u))
	assert.Equal(t, orreryhttp.UpdateSegmentAdded, u.Type)
	assert.Equal(t, uint64(7), u.Segment.Seq)

	require.NoError(t, json.Unmarshal([]byte(<-ch), &u))
	assert.Equal(t, orreryhttp.UpdateCentroid, u.Type)
	assert.Equal(t, domain.Vec3{X: 2}, *u.Centroid)
}

func TestStreamManager_LogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	sm := orreryhttp.NewStreamManager(orreryhttp.WithStreamLogger(logging.NewWithWriter(&buf, slog.LevelDebug)))
	r := orreryhttp.NewStreamRenderer("s1", sm)
	ch, cancel := sm.Subscribe("s1")
	defer cancel()

	r.OnCentroid(domain.Vec3{X: math.NaN()})
	assert.Empty(t, ch, "an unencodable update is not published")
	assert.Contains(t, buf.String(), "SSE: encode update failed")
	assert.Contains(t, buf.String(), "session_id=s1")

	for i := 0; i <= cap(ch); i++ {
		sm.Broadcast("s1", "tick")
	}
	assert.Contains(t, buf.String(), "client buffer full")
}
