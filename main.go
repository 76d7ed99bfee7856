package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/config"
	"github.com/generacy-ai/latency/internal/handshake"
	"github.com/generacy-ai/latency/internal/metrics"
)

var setupLog = ctrl.Log.WithName("setup")

func main() {
	var listenAddr string
	var metricsAddr string
	var configPath string
	var configMapRef string

	flag.StringVar(&listenAddr, "listen", ":50051", "The address the handshake gRPC service binds to.")
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metric and health endpoints bind to.")
	flag.StringVar(&configPath, "config", "", "Path to a NegotiatorConfig document.")
	flag.StringVar(&configMapRef, "configmap", "", "Load the NegotiatorConfig from the ConfigMap <namespace>/<name> instead of --config.")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	ctx := ctrl.SetupSignalHandler()

	cfg, err := loadConfig(ctx, configPath, configMapRef)
	if err != nil {
		setupLog.Error(err, "unable to load configuration")
		os.Exit(1)
	}

	m, err := metrics.New(ctrlmetrics.Registry)
	if err != nil {
		setupLog.Error(err, "unable to register metrics")
		os.Exit(1)
	}

	rt, err := config.Build(cfg, ctrl.Log.WithName(string(cfg.Spec.Component)), m)
	if err != nil {
		setupLog.Error(err, "unable to build negotiator")
		os.Exit(1)
	}

	plan, err := rt.Bootstrap()
	if err != nil {
		setupLog.Error(err, "plugin wiring failed")
		os.Exit(1)
	}
	setupLog.Info("plugins wired", "startupOrder", plan.StartupOrder, "bindings", len(plan.Bindings))

	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		setupLog.Error(err, "unable to listen", "address", listenAddr)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	handshake.RegisterHandshakeServer(grpcServer, handshake.NewServer(rt.Negotiator, ctrl.Log.WithName("handshake")))
	healthServer := health.NewServer()
	healthServer.SetServingStatus(handshake.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ctrlmetrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", http.StripPrefix("/healthz", &healthz.Handler{Checks: map[string]healthz.Checker{"ping": healthz.Ping}}))
	httpServer := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			setupLog.Error(err, "metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	setupLog.Info("serving handshakes", "component", cfg.Spec.Component, "address", listenAddr, "protocols", rt.Negotiator.SupportedProtocols())
	if err := grpcServer.Serve(lis); err != nil {
		setupLog.Error(err, "problem serving handshakes")
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context, path, configMapRef string) (*latencyv1alpha1.NegotiatorConfig, error) {
	switch {
	case configMapRef != "":
		namespace, name, ok := strings.Cut(configMapRef, "/")
		if !ok || namespace == "" || name == "" {
			return nil, fmt.Errorf("--configmap must be <namespace>/<name>, got %q", configMapRef)
		}
		c, err := client.New(ctrl.GetConfigOrDie(), client.Options{})
		if err != nil {
			return nil, fmt.Errorf("create kubernetes client: %w", err)
		}
		var cm corev1.ConfigMap
		if err := c.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, &cm); err != nil {
			return nil, fmt.Errorf("get configmap %s: %w", configMapRef, err)
		}
		return config.FromConfigMap(&cm)
	case path != "":
		return config.Load(path)
	}
	return nil, errors.New("one of --config or --configmap is required")
}
