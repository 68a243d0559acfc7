package synonym

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/casewise/internal/logging"
)

func TestWatcher_ReloadKeepsPreviousTableOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte("duermo fatal: insomnio\n"), 0644))

	holder := NewHolder(nil)
	w := NewWatcher(holder, []string{path}, logging.NewNopLogger())

	gen, err := w.Reload()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	v, _ := holder.Load().Lookup("duermo fatal")
	assert.Equal(t, "insomnio", v)

	require.NoError(t, os.WriteFile(path, []byte("duermo fatal: [unterminated\n"), 0644))
	gen, err = w.Reload()
	assert.Error(t, err)
	assert.Equal(t, uint64(1), gen)
	v, _ = holder.Load().Lookup("duermo fatal")
	assert.Equal(t, "insomnio", v)
}

func TestWatcher_RunReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"duermo fatal": "insomnio"}`), 0644))

	holder := NewHolder(Default())
	w := NewWatcher(holder, []string{path}, nil)

	reloaded := make(chan uint64, 4)
	w.OnReload(func(gen uint64, err error) {
		if err == nil {
			reloaded <- gen
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"duermo fatal": "sueno fragmentado"}`), 0644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	v, _ := holder.Load().Lookup("duermo fatal")
	assert.Equal(t, "sueno fragmentado", v)
	v, _ = holder.Load().Lookup("no puedo dormir")
	assert.Equal(t, "insomnio", v)

	cancel()
	assert.NoError(t, <-done)
}
