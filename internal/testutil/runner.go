package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"lgtnav/internal/artifact"
	"lgtnav/internal/engine"
)

// FakeRunner stands in for the analysis engine. For each kind it writes a
// scripted artifact into the request's root before returning, the same
// contract the real engine keeps.
type FakeRunner struct {
	mu       sync.Mutex
	resolver *artifact.Resolver
	sentinel bool
	inDir    bool
	outputs  map[artifact.Kind]string
	errs     map[artifact.Kind]error
	calls    []engine.Request

	// Hook, when set, runs at the start of every call.
	Hook func(ctx context.Context, req engine.Request)
}

// NewFakeRunner creates a runner writing artifacts with the given prefix.
func NewFakeRunner(prefix string) *FakeRunner {
	return &FakeRunner{
		resolver: artifact.NewResolver(prefix, false),
		outputs:  make(map[artifact.Kind]string),
		errs:     make(map[artifact.Kind]error),
	}
}

// WithSentinel makes the runner also write the "_done" marker.
func (r *FakeRunner) WithSentinel() *FakeRunner {
	r.sentinel = true
	return r
}

// InSourceDir makes the runner write next to the source file instead of
// the root, like older engines.
func (r *FakeRunner) InSourceDir() *FakeRunner {
	r.inDir = true
	return r
}

// SetOutput scripts the artifact content for kind. RootPlaceholder is
// replaced by the request root when written.
func (r *FakeRunner) SetOutput(kind artifact.Kind, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[kind] = content
}

// SetError makes calls for kind fail with err without writing anything.
func (r *FakeRunner) SetError(kind artifact.Kind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[kind] = err
}

// Calls returns the requests seen so far.
func (r *FakeRunner) Calls() []engine.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Request(nil), r.calls...)
}

// Run implements engine.Runner.
func (r *FakeRunner) Run(ctx context.Context, req engine.Request) error {
	if r.Hook != nil {
		r.Hook(ctx, req)
	}

	r.mu.Lock()
	r.calls = append(r.calls, req)
	content, ok := r.outputs[req.Kind]
	err := r.errs[req.Kind]
	r.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	dir := req.Root
	if r.inDir {
		dir = req.Dir
	}
	path, err := r.resolver.Resolve(dir, req.Kind)
	if err != nil {
		return err
	}
	content = strings.ReplaceAll(content, RootPlaceholder, filepath.ToSlash(req.Root))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	if r.sentinel {
		return os.WriteFile(filepath.Join(dir, r.resolver.SentinelName(req.Kind)), nil, 0o644)
	}
	return nil
}
