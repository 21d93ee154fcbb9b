// Package grpc exposes the standard health service for the storefront so
// orchestrators can probe the persistence port.
package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported next to the overall "".
const ServiceName = "storefront"

const probeKey = "storefront-health-probe"

// NewServer returns a gRPC server with health and reflection registered.
// Every service starts NOT_SERVING until a HealthReporter marks it.
func NewServer(l *zap.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(loggingInterceptor(l)),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(srv)

	return srv, hs
}

func loggingInterceptor(l *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.WithTrace(ctx, l).Debug("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)))
		return resp, err
	}
}

// HealthReporter keeps the health status in line with the store.
type HealthReporter struct {
	store  storage.Store
	health *health.Server
	logger *zap.Logger
	every  time.Duration
}

func NewHealthReporter(store storage.Store, hs *health.Server, l *zap.Logger, every time.Duration) *HealthReporter {
	return &HealthReporter{store: store, health: hs, logger: l, every: every}
}

// Check loads a probe key; a missing key still proves the store answers.
func (r *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	var probe struct{}
	err := r.store.Load(ctx, probeKey, &probe)
	st := healthpb.HealthCheckResponse_SERVING
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("store health probe failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.health.SetServingStatus("", st)
	r.health.SetServingStatus(ServiceName, st)
	return st
}

// Run checks once immediately and then on every tick until ctx is done,
// when the server is switched to NOT_SERVING for shutdown.
func (r *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.every)
	defer ticker.Stop()

	r.check(ctx)
	for {
		select {
		case <-ticker.C:
			r.check(ctx)
		case <-ctx.Done():
			r.health.Shutdown()
			return
		}
	}
}

func (r *HealthReporter) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.every)
	defer cancel()
	r.Check(ctx)
}
