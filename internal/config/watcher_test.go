package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/remedy/internal/core/observability/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type applied struct {
	mu   sync.Mutex
	cfgs []Config
}

func (a *applied) apply(c Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfgs = append(a.cfgs, c)
	return nil
}

func (a *applied) snapshot() []Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Config(nil), a.cfgs...)
}

func startWatcher(t *testing.T, path string, apply ApplyFunc, opts ...WatcherOption) {
	t.Helper()
	w, err := NewWatcher(path, apply, append([]WatcherOption{WithDebounce(20 * time.Millisecond)}, opts...)...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remediation:\n  batch_cap: 3\n"), 0o600))

	var got applied
	startWatcher(t, path, got.apply)

	require.NoError(t, os.WriteFile(path, []byte("remediation:\n  batch_cap: 9\n"), 0o600))
	require.Eventually(t, func() bool {
		cfgs := got.snapshot()
		return len(cfgs) > 0 && cfgs[len(cfgs)-1].Remediation.BatchCap == 9
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherKeepsPreviousOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remedy.toml")
	require.NoError(t, os.WriteFile(path, []byte("[remediation]\nbatch_cap = 3\n"), 0o600))

	core, logs := observer.New(zap.WarnLevel)
	var got applied
	startWatcher(t, path, got.apply, WithWatcherLogger(log.NewWithCore(core)))

	require.NoError(t, os.WriteFile(path, []byte("[remediation]\nbatch_cap = -1\n"), 0o600))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("config reload rejected, keeping previous").Len() > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, got.snapshot())
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "remedy.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	var got applied
	startWatcher(t, path, got.apply)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, got.snapshot())
}
