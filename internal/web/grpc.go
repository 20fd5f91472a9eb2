package web

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC service name reported by the health server.
const HealthService = "stockboard.Dashboard"

// HealthServer hosts the standard gRPC health service.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	log    *slog.Logger
}

// NewHealthServer creates a gRPC server with the health service registered
// and both the overall and HealthService statuses set to SERVING.
func NewHealthServer(log *slog.Logger) *HealthServer {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	return &HealthServer{grpc: gs, health: hs, log: log}
}

// Serve accepts connections on lis until Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.log.Info("gRPC health server listening", "addr", lis.Addr().String())
	return h.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and stops the server gracefully.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}

// Check queries the health service at addr. An empty service checks the
// server as a whole.
func Check(ctx context.Context, addr, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
