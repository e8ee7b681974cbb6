package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/louisbranch/boulderlog/internal/services/grades/remote"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestServer_HealthAndHTTPRoundTrip(t *testing.T) {
	dbPath := t.TempDir() + "/gradesync.db"
	t.Setenv("BOULDERLOG_GRADESYNC_DB_PATH", dbPath)

	srv, err := NewWithAddr("127.0.0.1:0", "127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	conn, err := grpc.NewClient(srv.GRPCAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial health server: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := conn.Close(); closeErr != nil {
			t.Fatalf("close gRPC connection: %v", closeErr)
		}
	})

	healthResp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{
		Service: HealthService,
	})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if healthResp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %v, want SERVING", healthResp.GetStatus())
	}

	resp, err := http.Get("http://" + srv.Addr() + remote.SystemsPath("u1"))
	if err != nil {
		t.Fatalf("list systems: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var snapshot remote.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.UserID != "u1" {
		t.Fatalf("user id = %q, want u1", snapshot.UserID)
	}
}

func TestServeNilServer(t *testing.T) {
	var srv *Server
	if err := srv.Serve(context.Background()); err == nil {
		t.Fatal("expected nil server error")
	}
}

func TestNewWithAddrRejectsBadAddress(t *testing.T) {
	t.Setenv("BOULDERLOG_GRADESYNC_DB_PATH", t.TempDir()+"/gradesync.db")
	if _, err := NewWithAddr("bad::addr", "127.0.0.1:0", nil); err == nil {
		t.Fatal("expected listen error")
	}
}
