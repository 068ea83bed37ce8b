package grpc

import (
	"log"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"realtime-service/internal/observability"
)

// HealthServer exposes grpc.health.v1.Health for the engine. The overall
// status ("") and the named service status move together.
type HealthServer struct {
	server  *grpclib.Server
	health  *health.Server
	service string
}

// NewHealthServer builds the server with tracing and metrics attached.
func NewHealthServer(service string) *HealthServer {
	server := grpclib.NewServer(
		grpclib.StatsHandler(otelgrpc.NewServerHandler()),
		grpclib.UnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	h := &HealthServer{server: server, health: hs, service: service}
	h.SetServing(false)
	return h
}

// SetServing flips the reported status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(h.service, status)
}

// Serve blocks until Stop is called or the listener fails.
func (h *HealthServer) Serve(lis net.Listener) error {
	log.Printf("grpc health listening addr=%s service=%s", lis.Addr(), h.service)
	if err := h.server.Serve(lis); err != nil && err != grpclib.ErrServerStopped {
		return err
	}
	return nil
}

// Stop marks the service as not serving and drains in-flight RPCs.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
