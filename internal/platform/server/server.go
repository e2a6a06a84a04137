package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName は gRPC ヘルスチェックで公開するサービス名です。
const ServiceName = "staffledger.v1.StaffLedger"

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultProbeInterval   = 15 * time.Second
)

// Probe は依存先の疎通を確認します。
type Probe func(ctx context.Context) error

// Config はサーバーの待ち受けとタイムアウトの設定です。
type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ProbeInterval   time.Duration
}

// Server は HTTP API と gRPC ヘルスチェックのライフサイクルを管理します。
type Server struct {
	cfg        Config
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	probe      Probe
	logger     logrus.FieldLogger
}

// New は HTTP ハンドラと gRPC ヘルスサービスを持つサーバーを構築します。
// probe が nil の場合は常に SERVING を返します。
func New(cfg Config, handler http.Handler, probe Probe, logger logrus.FieldLogger, opts ...grpc.ServerOption) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = defaultProbeInterval
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	grpcServer := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		grpcServer: grpcServer,
		health:     healthServer,
		probe:      probe,
		logger:     logger,
	}
}

// Run は設定されたアドレスで待ち受け、コンテキストがキャンセルされると停止します。
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.HTTPAddr, err)
	}
	grpcLis, err := net.Listen("tcp", s.cfg.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen on %s: %w", s.cfg.GRPCAddr, err)
	}
	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve は与えられたリスナーで HTTP と gRPC を提供します。
// いずれかが異常終了した場合は他方も停止します。
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	s.checkHealth(gctx)

	g.Go(func() error {
		s.logger.WithField("addr", httpLis.Addr().String()).Info("http server listening")
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.WithField("addr", grpcLis.Addr().String()).Info("grpc server listening")
		if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.cfg.ProbeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.checkHealth(gctx)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		s.shutdown()
		return nil
	})

	return g.Wait()
}

func (s *Server) checkHealth(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.WithError(err).Warn("dependency probe failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) shutdown() {
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Warn("http shutdown incomplete")
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
	s.logger.Info("server stopped")
}
