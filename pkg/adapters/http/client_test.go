package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/orrery/internal/dto"
	orreryhttp "github.com/aretw0/orrery/pkg/adapters/http"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Contract(t *testing.T) {
	ports.RunFetcherContract(t, func(t *testing.T, sessionID string, chunks [][]domain.Frame) ports.Fetcher {
		p := orreryhttp.NewProducer(nil)
		p.Open(sessionID, orreryhttp.NewQueueSource(chunks...))
		srv := httptest.NewServer(p.Handler())
		t.Cleanup(srv.Close)
		return orreryhttp.NewClient(srv.URL)
	})
}

func TestClient_StartSession(t *testing.T) {
	p := orreryhttp.NewProducer(nil)
	p.Register("solar_system", orreryhttp.Simulation{
		Name:          "Solar System",
		FPS:           30,
		YearsPerFrame: 0.01,
		Bodies:        []dto.BodyInfo{{Name: "Sun"}, {Name: "Earth"}},
		New: func() orreryhttp.Source {
			return orreryhttp.NewQueueSource([]domain.Frame{{{ID: "Sun"}, {ID: "Earth"}}})
		},
	})
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	c := orreryhttp.NewClient(srv.URL + "/")
	cfg, err := c.StartSession(context.Background(), "solar_system")
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.SessionID)
	assert.Equal(t, "Solar System", cfg.Name)
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, []string{"Sun", "Earth"}, cfg.EntityIDs)

	frames, err := c.FetchChunk(context.Background(), cfg.SessionID)
	require.NoError(t, err)
	assert.Len(t, frames, 1)

	_, err = c.StartSession(context.Background(), "andromeda")
	require.Error(t, err)
	assert.True(t, orreryhttp.IsNotFound(err))
	assert.Contains(t, err.Error(), "unknown simulation")
}

func TestClient_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/state/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "integrator diverged"}`))
	})
	mux.HandleFunc("/state/plain", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/state/object", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"frames": 3}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := orreryhttp.NewClient(srv.URL)

	_, err := c.FetchChunk(context.Background(), "broken")
	var se *orreryhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "integrator diverged", se.Message)

	_, err = c.FetchChunk(context.Background(), "plain")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Bad Gateway", se.Message)

	_, err = c.FetchChunk(context.Background(), "object")
	assert.ErrorIs(t, err, domain.ErrMalformedChunk)
}

func TestClient_HonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orreryhttp.NewClient(srv.URL).FetchChunk(ctx, "s1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProducer_ListScenarios(t *testing.T) {
	p := orreryhttp.NewProducer(nil)
	p.Register("b", orreryhttp.Simulation{Name: "B", Bodies: []dto.BodyInfo{{Name: "x"}}})
	p.Register("a", orreryhttp.Simulation{Name: "A"})

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list_scenarios", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"key":"a","name":"A","planet_count":0},{"key":"b","name":"B","planet_count":1}]`, rec.Body.String())
}
