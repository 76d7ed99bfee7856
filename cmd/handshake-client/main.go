package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/handshake"
	"github.com/generacy-ai/latency/internal/negotiation"
)

func main() {
	var target string
	var component string
	var packageVersion string
	var protocols string
	var capabilities string
	flag.StringVar(&target, "target", "127.0.0.1:50051", "gRPC server address")
	flag.StringVar(&component, "component", string(latencyv1alpha1.ComponentAgency), "component role to announce")
	flag.StringVar(&packageVersion, "package-version", "0.1.0", "package version to announce")
	flag.StringVar(&protocols, "protocols", "1.0.0", "comma separated supported protocol versions")
	flag.StringVar(&capabilities, "capabilities", "", "comma separated capabilities to request")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		panic(fmt.Errorf("dial %s: %w", target, err))
	}
	defer conn.Close()

	req := latencyv1alpha1.HandshakeRequest{
		Component:          latencyv1alpha1.Component(component),
		PackageVersion:     packageVersion,
		SupportedProtocols: splitList(protocols),
	}
	for _, c := range splitList(capabilities) {
		req.Capabilities = append(req.Capabilities, latencyv1alpha1.Capability(c))
	}

	res, err := handshake.NewClient(conn).Negotiate(ctx, req)
	if err != nil {
		fmt.Printf("Negotiate error: %v\n", err)
		os.Exit(1)
	}

	switch r := res.(type) {
	case *negotiation.Success:
		fmt.Printf("Negotiate ok: protocol=%s capabilities=%v\n", r.SelectedProtocol, r.Capabilities)
		for _, w := range r.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
	case *negotiation.Failure:
		fmt.Printf("Negotiate failed: code=%s message=%q\n", r.Code, r.Message)
		os.Exit(2)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
