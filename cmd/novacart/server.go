package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"novacart/pkg/infrastructure/mysql"
)

const databaseCheckInterval = 15 * time.Second

func startServer(serverURL string, handler http.Handler, logger log.FieldLogger) *http.Server {
	srv := &http.Server{
		Addr:              serverURL,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	return srv
}

type healthServer struct {
	grpc   *grpc.Server
	health *health.Server
	cancel context.CancelFunc
}

// startHealthServer serves grpc.health.v1 and keeps the status in line with database reachability.
func startHealthServer(address string, connector *mysql.Connector, logger log.FieldLogger) (*healthServer, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", address)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &healthServer{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		cancel: cancel,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)

	go s.watchDatabase(ctx, connector, logger)
	go func() {
		if err := s.grpc.Serve(lis); err != nil {
			logger.WithError(err).Error("health server stopped")
		}
	}()
	logger.WithField("url", address).Info("Starting health server")
	return s, nil
}

func (s *healthServer) watchDatabase(ctx context.Context, connector *mysql.Connector, logger log.FieldLogger) {
	ticker := time.NewTicker(databaseCheckInterval)
	defer ticker.Stop()
	for {
		s.setStatus(checkDatabase(ctx, connector, logger))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *healthServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(appID, status)
}

func checkDatabase(ctx context.Context, connector *mysql.Connector, logger log.FieldLogger) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	db, err := connector.DB(ctx)
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err != nil {
		logger.WithError(err).Warn("database is unreachable")
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

func (s *healthServer) Stop() {
	s.cancel()
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignalChan(killSignalChan <-chan os.Signal, logger log.FieldLogger) {
	killSignal := <-killSignalChan
	switch killSignal {
	case os.Interrupt:
		logger.Info("Got SIGINT...")
	case syscall.SIGTERM:
		logger.Info("Got SIGTERM...")
	}
}
