package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	orreryhttp "github.com/aretw0/orrery/pkg/adapters/http"
	"github.com/aretw0/orrery/pkg/adapters/ws"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func serve(t *testing.T, p *orreryhttp.Producer) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(ws.NewHandler(p.Source, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Contract(t *testing.T) {
	ports.RunFetcherContract(t, func(t *testing.T, sessionID string, chunks [][]domain.Frame) ports.Fetcher {
		p := orreryhttp.NewProducer(nil)
		p.Open(sessionID, orreryhttp.NewQueueSource(chunks...))
		f := ws.NewFetcher(wsURL(serve(t, p)))
		t.Cleanup(func() { f.Close() })
		return f
	})
}

type failingSource struct{}

func (failingSource) NextChunk(ctx context.Context) ([]domain.Frame, error) {
	return nil, assert.AnError
}

func TestFetcher_ProducerError(t *testing.T) {
	p := orreryhttp.NewProducer(nil)
	p.Open("s1", failingSource{})
	f := ws.NewFetcher(wsURL(serve(t, p)))
	defer f.Close()

	_, err := f.FetchChunk(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), assert.AnError.Error())
	assert.NotErrorIs(t, err, domain.ErrMalformedChunk)

	// The connection survives an application-level error.
	_, err = f.FetchChunk(context.Background(), "missing")
	assert.ErrorContains(t, err, "session not found")
}

func TestFetcher_Redials(t *testing.T) {
	p := orreryhttp.NewProducer(nil)
	p.Open("s1", orreryhttp.NewQueueSource(
		[]domain.Frame{{{ID: "a"}}},
		[]domain.Frame{{{ID: "b"}}},
	))

	var conns atomic.Int32
	h := ws.NewHandler(p.Source, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conns.Add(1)
		h.ServeHTTP(w, r)
	}))
	defer srv.Close()

	f := ws.NewFetcher(wsURL(srv))
	defer f.Close()

	frames, err := f.FetchChunk(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", frames[0][0].ID)

	require.NoError(t, f.Close())

	frames, err = f.FetchChunk(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "b", frames[0][0].ID)
	assert.Equal(t, int32(2), conns.Load())
}

func TestFetcher_ContextCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Read requests, never answer.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	f := ws.NewFetcher(wsURL(srv))
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.FetchChunk(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type endlessSource struct{}

func (endlessSource) NextChunk(ctx context.Context) ([]domain.Frame, error) {
	return []domain.Frame{{{ID: "a"}}}, nil
}

func TestFetcher_CancelDoesNotLeakIntoNextFetch(t *testing.T) {
	p := orreryhttp.NewProducer(nil)
	p.Open("s1", endlessSource{})
	f := ws.NewFetcher(wsURL(serve(t, p)))
	defer f.Close()

	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go func(d time.Duration) {
			time.Sleep(d)
			cancel()
		}(time.Duration(i%5) * 50 * time.Microsecond)
		// Cancelled or not, this call must leave no deadline behind.
		f.FetchChunk(ctx, "s1")
		cancel()

		frames, err := f.FetchChunk(context.Background(), "s1")
		require.NoError(t, err, "iteration %d", i)
		require.Len(t, frames, 1)
	}
}

func TestHandler_RejectsUnknownOp(t *testing.T) {
	srv := serve(t, orreryhttp.NewProducer(nil))
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"op": "rewind"}))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "unknown op: rewind", reply["error"])
}
