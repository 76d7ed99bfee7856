package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestE2ESmoke_Handshake(t *testing.T) {
	if os.Getenv("LATENCY_E2E") == "" {
		t.Skip("set LATENCY_E2E=1 to run the process-level smoke test")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go not found in PATH")
	}

	repoRoot := findRepoRoot(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	binDir := t.TempDir()
	serverBin := filepath.Join(binDir, "latency")
	clientBin := filepath.Join(binDir, "handshake-client")
	runOrFail(t, ctx, repoRoot, nil, "go", "build", "-o", serverBin, ".")
	runOrFail(t, ctx, repoRoot, nil, "go", "build", "-o", clientBin, "./cmd/handshake-client")

	grpcAddr := fmt.Sprintf("127.0.0.1:%d", pickFreePort(t))
	metricsAddr := fmt.Sprintf("127.0.0.1:%d", pickFreePort(t))

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverCmd := exec.CommandContext(serverCtx, serverBin,
		"--listen="+grpcAddr,
		"--metrics-bind-address="+metricsAddr,
		"--config="+filepath.Join(repoRoot, "internal", "config", "testdata", "generacy.yaml"),
	)
	serverCmd.Dir = repoRoot
	var serverOut bytes.Buffer
	serverCmd.Stdout = &serverOut
	serverCmd.Stderr = &serverOut
	if err := serverCmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		serverCancel()
		_ = serverCmd.Wait()
	})

	clientArgs := []string{
		"--target=" + grpcAddr,
		"--component=agency",
		"--package-version=0.4.1",
		"--protocols=2.0.0,3.0.0",
		"--capabilities=metrics,legacy-log",
	}

	var out string
	deadline := time.Now().Add(time.Minute)
	for {
		var err error
		out, err = runOut(ctx, repoRoot, nil, clientBin, clientArgs...)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Logf("server output:\n%s", serverOut.String())
			t.Fatalf("timeout waiting for handshake: %v\n%s", err, out)
		}
		time.Sleep(time.Second)
	}

	for _, want := range []string{"protocol=2.0.0", "telemetry", "legacy-log"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in client output:\n%s", want, out)
		}
	}

	out, err := runOut(ctx, repoRoot, nil, clientBin, "--target="+grpcAddr, "--protocols=9.0.0")
	if err == nil || !strings.Contains(out, "PROTOCOL_NEGOTIATION_FAILED") {
		t.Fatalf("expected negotiation failure, err=%v output:\n%s", err, out)
	}

	httpClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := httpClient.Get("http://" + metricsAddr + "/metrics")
	if err != nil {
		t.Fatalf("scrape metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	for _, want := range []string{
		`latency_negotiations_total{result="success"} 1`,
		`latency_negotiations_total{result="failure"} 1`,
		`latency_deprecation_warnings_total{capability="legacy-log"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in metrics:\n%s", want, body)
		}
	}
}

func pickFreePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// e2e/smoke_test.go -> repo root
	return filepath.Clean(filepath.Join(filepath.Dir(file), ".."))
}

func runOrFail(t *testing.T, ctx context.Context, dir string, env []string, name string, args ...string) string {
	t.Helper()

	out, err := runOut(ctx, dir, env, name, args...)
	if err != nil {
		t.Fatalf("%s %s failed: %v\n%s", name, strings.Join(args, " "), err, out)
	}
	return out
}

func runOut(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = env
	}
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}
