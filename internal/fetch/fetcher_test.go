package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, opts Options) *Fetcher {
	t.Helper()
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	f, err := NewFetcher(opts)
	require.NoError(t, err)
	return f
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bills-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{UserAgent: "bills-test"})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html><body>ok</body></html>", string(body))
}

func TestFetch_SameURLTwice(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{})
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL+"/page.htm")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, BadStatus, fe.Kind)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetch_NoRetryOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{})
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Equal(t, BadStatus, KindOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	f := newTestFetcher(t, Options{})
	_, err := f.Fetch(context.Background(), addr)
	assert.Equal(t, Unreachable, KindOf(err))
}

func TestFetch_RejectsNonHTTP(t *testing.T) {
	f := newTestFetcher(t, Options{})
	_, err := f.Fetch(context.Background(), "file:///etc/hosts")
	assert.Equal(t, Unreachable, KindOf(err))
}

func TestFetch_CancelledContext(t *testing.T) {
	f := newTestFetcher(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, "http://127.0.0.1:1/")
	assert.Equal(t, Unreachable, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_DecodesLegacyCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// "£5" in windows-1252 with the charset only declared in markup.
		_, _ = w.Write([]byte("<html><head><meta charset=\"windows-1252\"></head><body>\xa35</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{})
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "£5")
}

func TestFetch_Parallelism(t *testing.T) {
	var inFlight, maxObserved int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		curr := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxObserved)
			if curr <= prev || atomic.CompareAndSwapInt32(&maxObserved, prev, curr) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{Parallelism: 2})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.Fetch(context.Background(), srv.URL+"/page")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&maxObserved), int32(2))
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	var robotsCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			atomic.AddInt32(&robotsCalls, 1)
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{UserAgent: "bills-test", RespectRobots: true})

	_, err := f.Fetch(context.Background(), srv.URL+"/private/bill.html")
	assert.Equal(t, Disallowed, KindOf(err))

	body, err := f.Fetch(context.Background(), srv.URL+"/bills/bill.html")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	assert.EqualValues(t, 1, atomic.LoadInt32(&robotsCalls))
}

func TestFetch_RobotsMissingAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{RespectRobots: true})
	_, err := f.Fetch(context.Background(), srv.URL+"/anything")
	assert.NoError(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	wrapped := errors.Join(errors.New("ctx"), &Error{Kind: BadStatus, URL: "http://x", StatusCode: 500})
	assert.Equal(t, BadStatus, KindOf(wrapped))
	assert.Equal(t, "bad-status", BadStatus.String())
}
