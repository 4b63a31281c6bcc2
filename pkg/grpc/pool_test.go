package grpc

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startHealthServer(t *testing.T) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)
	return lis
}

func bufDialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestPool_ReusesConnection(t *testing.T) {
	lis := startHealthServer(t)
	pool := NewPool(WithDialOptions(bufDialer(lis)))
	defer pool.Close()

	const workers = 16
	conns := make([]*grpc.ClientConn, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			conn, err := pool.GetConnection("passthrough:///wallet")
			assert.NoError(t, err)
			conns[i] = conn
		}(i)
	}
	wg.Wait()

	for _, conn := range conns {
		assert.Same(t, conns[0], conn)
	}
	assert.Equal(t, 1, pool.Len())

	other, err := pool.GetConnection("passthrough:///other")
	require.NoError(t, err)
	assert.NotSame(t, conns[0], other)
	assert.Equal(t, 2, pool.Len())
}

func TestPool_InterceptorsAndCall(t *testing.T) {
	lis := startHealthServer(t)

	var calls int32
	var order []string
	var mu sync.Mutex
	record := func(name string) grpc.UnaryClientInterceptor {
		return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			atomic.AddInt32(&calls, 1)
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return invoker(ctx, method, req, reply, cc, opts...)
		}
	}

	pool := NewPool(
		WithInterceptor(record("first")),
		WithInterceptor(record("second")),
		WithDialOptions(bufDialer(lis)),
	)
	defer pool.Close()

	conn, err := pool.GetConnection("passthrough:///wallet")
	require.NoError(t, err)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPool_ReplacesClosedConnection(t *testing.T) {
	lis := startHealthServer(t)
	pool := NewPool(WithDialOptions(bufDialer(lis)))
	defer pool.Close()

	first, err := pool.GetConnection("passthrough:///wallet")
	require.NoError(t, err)
	require.NoError(t, first.Close())
	assert.Equal(t, connectivity.Shutdown, first.GetState())

	second, err := pool.GetConnection("passthrough:///wallet")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, pool.Len())
}

func TestPool_Close(t *testing.T) {
	lis := startHealthServer(t)
	pool := NewPool(WithDialOptions(bufDialer(lis)))

	conn, err := pool.GetConnection("passthrough:///wallet")
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	assert.Equal(t, 0, pool.Len())
	assert.Equal(t, connectivity.Shutdown, conn.GetState())
}
