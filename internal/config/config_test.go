package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	latencyv1alpha1 "github.com/generacy-ai/latency/api/v1alpha1"
	"github.com/generacy-ai/latency/internal/capability"
	"github.com/generacy-ai/latency/internal/metrics"
	"github.com/generacy-ai/latency/internal/negotiation"
	"github.com/generacy-ai/latency/internal/resolver"
)

const minimal = `
apiVersion: latency.generacy.ai/v1alpha1
kind: NegotiatorConfig
spec:
  component: agency
  packageVersion: 0.4.1
  supportedProtocols: ["1.0.0"]
`

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "generacy.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "generacy" || cfg.Spec.Component != latencyv1alpha1.ComponentGeneracy {
		t.Fatalf("unexpected metadata %+v", cfg.ObjectMeta)
	}
	if diff := cmp.Diff([]string{"1.0.0", "2.0.0"}, cfg.Spec.SupportedProtocols); diff != "" {
		t.Fatalf("protocols mismatch (-want +got):\n%s", diff)
	}
	dep := cfg.Spec.Capabilities["legacy-log"].Deprecated
	if dep == nil || dep.Since != "2.0.0" || dep.Replacement != "telemetry" {
		t.Fatalf("unexpected deprecation %+v", dep)
	}
	if len(cfg.Spec.Plugins) != 3 || cfg.Spec.Plugins[2].Provides[1].Metadata["org"] != "generacy-ai" {
		t.Fatalf("unexpected plugins %+v", cfg.Spec.Plugins)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Spec.FacetResolution != latencyv1alpha1.FacetResolutionHighestPriority {
		t.Fatalf("expected default facet resolution, got %q", cfg.Spec.FacetResolution)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"unknown field": {
			doc:  minimal + "  extra: true\n",
			want: "extra",
		},
		"wrong kind": {
			doc:  strings.Replace(minimal, "NegotiatorConfig", "Realm", 1),
			want: "kind",
		},
		"wrong apiVersion": {
			doc:  strings.Replace(minimal, "v1alpha1", "v1", 1),
			want: "apiVersion",
		},
		"bad protocol": {
			doc:  strings.Replace(minimal, `["1.0.0"]`, `["1.0.0", "1.0.0", "two"]`, 1),
			want: "spec.supportedProtocols[2]",
		},
		"unknown component": {
			doc:  strings.Replace(minimal, "agency", "orchestrator", 1),
			want: "spec.component",
		},
		"bad strategy": {
			doc:  minimal + "  facetResolution: Random\n",
			want: "spec.facetResolution",
		},
		"unnamed plugin": {
			doc:  minimal + "  plugins:\n    - provides:\n        - facet: \"\"\n",
			want: "spec.plugins[0].provides[0].facet",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestFromConfigMap(t *testing.T) {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "latency", Namespace: "generacy"},
		Data:       map[string]string{ConfigMapKey: minimal},
	}
	cfg, err := FromConfigMap(cm)
	if err != nil {
		t.Fatalf("FromConfigMap: %v", err)
	}
	if cfg.Spec.Component != latencyv1alpha1.ComponentAgency {
		t.Fatalf("unexpected component %q", cfg.Spec.Component)
	}

	cm.Data = map[string]string{"other.yaml": minimal}
	if _, err := FromConfigMap(cm); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for missing key, got %v", err)
	}
	if _, err := FromConfigMap(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil configmap, got %v", err)
	}
}

func TestBuild_BootstrapAndNegotiate(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "generacy.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	rt, err := Build(cfg, testr.New(t), m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	plan, err := rt.Bootstrap()
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if diff := cmp.Diff([]string{"github", "jira", "workflow"}, plan.StartupOrder); diff != "" {
		t.Fatalf("startup order mismatch (-want +got):\n%s", diff)
	}
	for _, b := range plan.Bindings {
		if b.Requirement.Facet == "IssueTracker" && b.Provider.(resolver.PluginProvider).Plugin != "jira" {
			t.Fatalf("expected jira to win on priority, got %+v", b)
		}
	}

	res, err := rt.Negotiator.Handshake(latencyv1alpha1.HandshakeRequest{
		Component:          latencyv1alpha1.ComponentAgency,
		PackageVersion:     "0.4.1",
		SupportedProtocols: []string{"2.0.0"},
		Capabilities:       []latencyv1alpha1.Capability{"metrics", "legacy-log"},
	})
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	s, ok := res.(*negotiation.Success)
	if !ok {
		t.Fatalf("expected success, got %#v", res)
	}
	if diff := cmp.Diff([]latencyv1alpha1.Capability{"metrics", "legacy-log", "telemetry"}, s.Capabilities); diff != "" {
		t.Fatalf("capabilities mismatch (-want +got):\n%s", diff)
	}
	if len(s.Warnings) != 1 || !strings.Contains(s.Warnings[0], "legacy-log") {
		t.Fatalf("expected legacy-log deprecation warning, got %v", s.Warnings)
	}
}

func TestBuild_CatalogCycle(t *testing.T) {
	cfg, err := Parse([]byte(minimal + `
  capabilities:
    a:
      dependsOn: [b]
    b:
      dependsOn: [a]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Build(cfg, testr.New(t), nil); !errors.Is(err, capability.ErrDependencyCycle) {
		t.Fatalf("expected ErrDependencyCycle, got %v", err)
	}

	cfg.Spec.AllowDependencyCycles = true
	if _, err := Build(cfg, testr.New(t), nil); err != nil {
		t.Fatalf("Build with cycles allowed: %v", err)
	}
}

func TestStrategy(t *testing.T) {
	for _, res := range []latencyv1alpha1.FacetResolution{"", latencyv1alpha1.FacetResolutionHighestPriority, latencyv1alpha1.FacetResolutionFirstRegistered} {
		if s, err := Strategy(res); err != nil || s == nil {
			t.Fatalf("Strategy(%q)=%v, %v", res, s, err)
		}
	}
	if _, err := Strategy("Random"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
