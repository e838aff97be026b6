package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/speedioc"
	"github.com/sghaida/speedioc/artifact"
	"github.com/sghaida/speedioc/config"
	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/diagnostics"
	"github.com/sghaida/speedioc/internal/testdomain"
	"github.com/sghaida/speedioc/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

// seedCache builds a container under identity so its plan lands in dir.
func seedCache(t *testing.T, dir, identity string) *artifact.Plan {
	t.Helper()

	vehicleT := di.TypeOf[testdomain.Vehicle]()
	reg := di.RegistryFunc(func(r *di.Registrar) {
		r.DeclareConstructors(testdomain.NewCar, testdomain.NewCarWithMakeModel)
		di.Register[*testdomain.Car](r).As(vehicleT)
		di.Register[*testdomain.Car](r).As(vehicleT).WithName("Mustang").
			UsingConstructor().
			WithValueParameter("Ford").
			WithValueParameter("Mustang").
			AsLastParameter()
		di.Register[*testdomain.Car](r).As(vehicleT).WithName("Mustang").WithLifetime(di.Container)
	})

	opts := di.DefaultOptions()
	opts.ArtifactIdentity = identity
	opts.CacheLocation = dir
	opts.IncludeDiagnosticComments = true
	c, err := speedioc.New(opts,
		speedioc.WithProcessStore(store.NewProcessStore()),
		speedioc.WithPlanCacheSize(1),
	).AddRegistry(reg).Build()
	require.NoError(t, err)
	return c.Plan()
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// exec runs the command line and returns the exit code and both streams.
func exec(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

// TestList verifies plans are tabulated and unreadable ones flagged.
func TestList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	code, out, _ := exec(t, "--cache", dir, "list")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "no plans")

	seedCache(t, dir, "orders")
	require.NoError(t, os.WriteFile(artifact.PlanPath(dir, "broken"), []byte("garbage"), 0o644))

	code, out, _ = exec(t, "--cache", dir, "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "IDENTITY")
	assert.Regexp(t, `orders\s+3\s+2\s+1\s+0`, out)
	assert.Contains(t, out, "unreadable")
}

// TestInspect verifies the text and JSON views of a plan.
func TestInspect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedCache(t, dir, "orders")

	code, out, _ := exec(t, "--cache", dir, "inspect", "orders")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "2 active, 1 overridden, 0 skipped")
	assert.Contains(t, out, "overridden by [2]")
	assert.Contains(t, out, "Container")

	code, out, _ = exec(t, "--cache", dir, "inspect", "orders", "--json")
	require.Equal(t, 0, code)
	var p artifact.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "orders", p.Identity)
	assert.Len(t, p.Entries, 3)

	code, _, errOut := exec(t, "--cache", dir, "inspect", "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `no plan for "missing"`)
}

// TestVerify verifies good plans pass and tampered ones fail the command.
func TestVerify(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedCache(t, dir, "a")
	seedCache(t, dir, "b")

	code, out, _ := exec(t, "--cache", dir, "verify")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "ok   a")
	assert.Contains(t, out, "ok   b")

	path := artifact.PlanPath(dir, "b")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bytes.Replace(data, []byte("identity: b"), []byte("identity: c"), 1), 0o644))

	code, out, errOut := exec(t, "--cache", dir, "verify")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "FAIL b")
	assert.Contains(t, errOut, "1 of 2 plan(s) failed verification")

	code, _, _ = exec(t, "--cache", dir, "verify", "a")
	assert.Equal(t, 0, code)
}

// TestPurge verifies single and bulk removal.
func TestPurge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedCache(t, dir, "a")
	seedCache(t, dir, "b")

	code, _, errOut := exec(t, "--cache", dir, "purge")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "--all")

	code, out, _ := exec(t, "--cache", dir, "purge", "a")
	require.Equal(t, 0, code)
	assert.Contains(t, out, artifact.PlanPath(dir, "a"))
	assert.False(t, artifact.Exists(dir, "a"))
	assert.True(t, artifact.Exists(dir, "b"))

	code, out, _ = exec(t, "--cache", dir, "purge", "a")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "nothing to remove")

	code, _, _ = exec(t, "--cache", dir, "purge", "--all")
	require.Equal(t, 0, code)
	ids, err := artifact.List(dir)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

// TestRender verifies the rendition goes to stdout or a file.
func TestRender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedCache(t, dir, "orders")

	code, out, _ := exec(t, "--cache", dir, "render", "orders", "--package", "wiring")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "package wiring")

	target := filepath.Join(t.TempDir(), "wiring.gen.go")
	code, out, _ = exec(t, "--cache", dir, "render", "orders", "-o", target, "--comments")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "wrote "+target)
	src, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package "+di.DefaultRenditionPackage)
}

// TestServe_StopsOnCancel verifies serve returns cleanly once its context ends.
func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedCache(t, dir, "orders")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"--cache", dir, "serve", "orders", "--addr", "127.0.0.1:0"}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "serving orders")
}

// TestServe_Routes verifies the served handler answers diagnostics requests.
func TestServe_Routes(t *testing.T) {
	t.Parallel()

	p := seedCache(t, t.TempDir(), "orders")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: diagnostics.NewRouter(diagnostics.PlanSource(p)), ReadHeaderTimeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	var s diagnostics.Summary
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, "orders", s.Identity)

	cancel()
	assert.NoError(t, <-done)
}

// -----------------------------------------------------------------------------
// Cache location
// -----------------------------------------------------------------------------

// TestCacheLocation_Fallbacks verifies --config and the environment supply
// the cache location when --cache is absent.
func TestCacheLocation_Fallbacks(t *testing.T) {
	t.Setenv(config.EnvCacheLocation, "")

	code, _, errOut := exec(t, "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no cache location")

	dir := t.TempDir()
	seedCache(t, dir, "orders")

	cfg := filepath.Join(t.TempDir(), "speedioc.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("cacheLocation: "+dir+"\n"), 0o600))
	code, out, _ := exec(t, "--config", cfg, "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "orders")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(config.EnvCacheLocation+"="+dir+"\n"), 0o600))
	code, out, _ = exec(t, "--env-file", envFile, "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "orders")

	code, _, errOut = exec(t, "--cache", filepath.Join(dir, "absent"), "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "is not a directory")
}
