package server

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		expected int
	}{
		{name: "get", method: http.MethodGet, expected: http.StatusOK},
		{name: "head", method: http.MethodHead, expected: http.StatusOK},
		{name: "post", method: http.MethodPost, expected: http.StatusMethodNotAllowed},
	}
	h := HandleHealth(context.Background())
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(test.method, "/health", nil))
			if rec.Code != test.expected {
				t.Errorf("calling HandleHealth, got: %d, expected: %d", rec.Code, test.expected)
			}
		})
	}
}

func TestServeHTTPHandler(t *testing.T) {
	srv, err := New("127.0.0.1:0", 4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ServeHTTPHandler(ctx, HandleHealth(ctx))
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, `{"status": "ok"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("server did not stop")
	}
}

func TestServeGRPCHealth(t *testing.T) {
	srv, err := New("127.0.0.1:0", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	grpcSrv, _ := NewHealthGRPC()
	done := make(chan error, 1)
	go func() {
		done <- srv.ServeGRPC(ctx, grpcSrv)
	}()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()
	conn, err := grpc.DialContext(dialCtx, srv.Addr(), grpc.WithInsecure(), grpc.WithBlock())
	require.NoError(t, err)
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(dialCtx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("grpc server did not stop")
	}
}
