//go:build linux || darwin

package shred

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestNamedPipeIsUnsupported(t *testing.T) {
	dir := t.TempDir()
	pipe := filepath.Join(dir, "pipe")
	require.NoError(t, unix.Mkfifo(pipe, 0600))

	fs := afero.NewOsFs()

	t.Run("Shredder", func(t *testing.T) {
		s := NewShredder(fs, testOptions(), testLogger(t))
		op, err := s.Shred(context.Background(), pipe, []Algorithm{NullBytes}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedType)
		assert.Equal(t, "UnsupportedTypeError", op.ErrorKind)
	})

	t.Run("WalkerBestEffort", func(t *testing.T) {
		regular := filepath.Join(dir, "regular.txt")
		require.NoError(t, os.WriteFile(regular, []byte("data"), 0644))

		w := newTestWalker(t, fs, WalkOptions{BestEffort: true})
		ops, err := w.Walk(context.Background(), dir, []Algorithm{NullBytes}, nil)
		assert.ErrorIs(t, err, ErrUnsupportedType)
		require.Len(t, ops, 2)

		_, err = os.Stat(regular)
		assert.True(t, os.IsNotExist(err))
	})

	info, err := os.Lstat(pipe)
	require.NoError(t, err)
	assert.Equal(t, os.ModeNamedPipe, info.Mode().Type())
}
