package shred

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secureshred/internal/config"
)

func TestShredAllAlgorithmsAllLengths(t *testing.T) {
	lengths := []int{0, 1, testChunk - 1, testChunk, testChunk + 1, 35*testChunk + 7}

	for _, alg := range Algorithms() {
		for _, length := range lengths {
			t.Run(fmt.Sprintf("%s/%d", alg, length), func(t *testing.T) {
				fs := afero.NewMemMapFs()
				writeFile(t, fs, "/data/file.bin", sequentialBytes(length))

				s := NewShredder(fs, testOptions(), testLogger(t))
				rec := &progressRecorder{}

				op, err := s.Shred(context.Background(), "/data/file.bin", []Algorithm{alg}, rec)
				require.NoError(t, err)
				assert.Equal(t, StatusCompleted, op.Status)
				assert.Equal(t, int64(length), op.Length)
				assert.Equal(t, uint64(length*alg.Passes()), op.BytesOverwritten)
				assert.NotEmpty(t, op.ID)
				assert.NotNil(t, op.EndTime)

				exists, err := afero.Exists(fs, "/data/file.bin")
				require.NoError(t, err)
				assert.False(t, exists)

				entries, err := afero.ReadDir(fs, "/data")
				require.NoError(t, err)
				assert.Empty(t, entries, "renamed file must be removed too")

				values := rec.snapshot()
				require.NotEmpty(t, values)
				for i := 1; i < len(values); i++ {
					assert.GreaterOrEqual(t, values[i], values[i-1])
				}
				assert.Equal(t, 1.0, values[len(values)-1])
			})
		}
	}
}

func TestShredNullBytesWritesOnlyZeros(t *testing.T) {
	fs := newRecordingFs()
	writeFile(t, fs.Fs, "/z.bin", sequentialBytes(3*testChunk+5))

	opts := testOptions()
	opts.TruncateBeforeDelete = false
	s := NewShredder(fs, opts, testLogger(t))

	_, err := s.Shred(context.Background(), "/z.bin", []Algorithm{NullBytes}, nil)
	require.NoError(t, err)

	chunks := fs.chunks("/z.bin")
	require.Len(t, chunks, 4)
	total := 0
	for _, c := range chunks {
		assert.Equal(t, make([]byte, len(c)), c)
		total += len(c)
	}
	assert.Equal(t, 3*testChunk+5, total)
}

func TestShredRandomDataReusesBuffer(t *testing.T) {
	fs := newRecordingFs()
	writeFile(t, fs.Fs, "/r.bin", sequentialBytes(2*testChunk+10))

	s := NewShredder(fs, testOptions(), testLogger(t))
	_, err := s.Shred(context.Background(), "/r.bin", []Algorithm{RandomData}, nil)
	require.NoError(t, err)

	chunks := fs.chunks("/r.bin")
	require.Len(t, chunks, 3)
	assert.Equal(t, chunks[0], chunks[1])
	assert.Equal(t, chunks[0][:10], chunks[2])
}

func TestShredZeroLength(t *testing.T) {
	fs := newRecordingFs()
	writeFile(t, fs.Fs, "/empty", nil)

	s := NewShredder(fs, testOptions(), testLogger(t))
	rec := &progressRecorder{}

	op, err := s.Shred(context.Background(), "/empty", []Algorithm{Gutmann35}, rec)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, op.Status)
	assert.Empty(t, fs.chunks("/empty"))
	assert.Equal(t, []float64{1.0}, rec.snapshot())

	exists, _ := afero.Exists(fs, "/empty")
	assert.False(t, exists)
}

func TestShredSequence(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/seq.bin", sequentialBytes(2*testChunk))

	s := NewShredder(fs, testOptions(), testLogger(t))
	rec := &progressRecorder{}

	op, err := s.Shred(context.Background(), "/seq.bin", InteractiveSequence(), rec)
	require.NoError(t, err)
	assert.Equal(t, "nullbytes+randomdata+gutmann+polymorphic", op.Algorithm)
	assert.Equal(t, 15, op.Passes)
	// 15 проходов по 2 чанка
	assert.Len(t, rec.snapshot(), 30)
}

func TestShredMissingPath(t *testing.T) {
	s := NewShredder(afero.NewMemMapFs(), testOptions(), testLogger(t))

	op, err := s.Shred(context.Background(), "/nope", []Algorithm{NullBytes}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccess)
	assert.Equal(t, StatusFailed, op.Status)
	assert.Equal(t, "AccessError", op.ErrorKind)
}

func TestShredDirectoryIsUnsupported(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dir", 0755))

	s := NewShredder(fs, testOptions(), testLogger(t))
	_, err := s.Shred(context.Background(), "/dir", []Algorithm{NullBytes}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestShredNoAlgorithm(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/keep", []byte("abc"))

	s := NewShredder(fs, testOptions(), testLogger(t))
	_, err := s.Shred(context.Background(), "/keep", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)

	exists, _ := afero.Exists(fs, "/keep")
	assert.True(t, exists)
}

func TestShredCancelledBeforeStart(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/keep", []byte("abc"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewShredder(fs, testOptions(), testLogger(t))
	_, err := s.Shred(ctx, "/keep", []Algorithm{NullBytes}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	data, err := afero.ReadFile(fs, "/keep")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestShredDryRun(t *testing.T) {
	fs := newRecordingFs()
	writeFile(t, fs.Fs, "/dry", []byte("secret"))

	opts := testOptions()
	opts.DryRun = true
	s := NewShredder(fs, opts, testLogger(t))

	op, err := s.Shred(context.Background(), "/dry", []Algorithm{Gutmann35}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDryRun, op.Status)
	assert.Equal(t, int64(6), op.Length)
	assert.Empty(t, fs.chunks("/dry"))

	data, err := afero.ReadFile(fs, "/dry")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), data)
}

func TestShredShortWriteIsIoError(t *testing.T) {
	fs := newRecordingFs()
	writeFile(t, fs.Fs, "/bad.bin", sequentialBytes(testChunk))
	fs.shortWrites["/bad.bin"] = true

	s := NewShredder(fs, testOptions(), testLogger(t))
	op, err := s.Shred(context.Background(), "/bad.bin", []Algorithm{NullBytes}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, StatusFailed, op.Status)
	assert.False(t, op.Overwritten())

	exists, _ := afero.Exists(fs, "/bad.bin")
	assert.True(t, exists, "failed shred must not unlink")
}

func TestShredDeleteFailure(t *testing.T) {
	t.Run("KeepsName", func(t *testing.T) {
		fs := newRecordingFs()
		writeFile(t, fs.Fs, "/locked.bin", sequentialBytes(testChunk))
		fs.failRemove = true

		opts := testOptions()
		opts.RenameBeforeDelete = false
		opts.TruncateBeforeDelete = false
		s := NewShredder(fs, opts, testLogger(t))

		op, err := s.Shred(context.Background(), "/locked.bin", []Algorithm{NullBytes}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDelete)
		assert.Equal(t, StatusDeleteFailed, op.Status)
		assert.Equal(t, "DeleteError", op.ErrorKind)
		assert.True(t, op.Overwritten())

		data, err := afero.ReadFile(fs, "/locked.bin")
		require.NoError(t, err)
		assert.Equal(t, make([]byte, testChunk), data)
	})

	t.Run("Renamed", func(t *testing.T) {
		fs := newRecordingFs()
		writeFile(t, fs.Fs, "/dir/locked.bin", sequentialBytes(testChunk))
		fs.failRemove = true

		s := NewShredder(fs, testOptions(), testLogger(t))
		op, err := s.Shred(context.Background(), "/dir/locked.bin", []Algorithm{NullBytes}, nil)
		assert.ErrorIs(t, err, ErrDelete)
		assert.Equal(t, StatusDeleteFailed, op.Status)

		exists, _ := afero.Exists(fs, "/dir/locked.bin")
		assert.False(t, exists)

		entries, err := afero.ReadDir(fs, "/dir")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Len(t, entries[0].Name(), len("locked.bin"))
		assert.Zero(t, entries[0].Size(), "truncated before delete")
	})
}

func TestShredSamePathSingleWriter(t *testing.T) {
	fs := newRecordingFs()
	writeFile(t, fs.Fs, "/shared.bin", sequentialBytes(20*testChunk))

	s := NewShredder(fs, testOptions(), testLogger(t))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Shred(context.Background(), "/shared.bin", []Algorithm{DoD3Pass}, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAccess)
	}
	assert.Equal(t, 1, succeeded)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	assert.Equal(t, 1, fs.maxActive["/shared.bin"])
}

func TestPathLocksReleased(t *testing.T) {
	pl := newPathLocks()
	unlockA := pl.lock("/a")
	unlockB := pl.lock("/b")
	unlockB()
	unlockA()

	pl.mu.Lock()
	defer pl.mu.Unlock()
	assert.Empty(t, pl.locks)
}

func TestRandomName(t *testing.T) {
	name, err := randomName(12)
	require.NoError(t, err)
	assert.Len(t, name, 12)
	for _, c := range name {
		assert.Contains(t, nameAlphabet, string(c))
	}
}

func TestOptionsFromConfigRejectsCipher(t *testing.T) {
	cfg := config.Default()
	cfg.Shred.PolymorphicCipher = "rc4"
	_, err := OptionsFromConfig(cfg)
	assert.Error(t, err)
}

// swapOnOpenFs подменяет файл символьной ссылкой непосредственно перед открытием
type swapOnOpenFs struct {
	afero.Fs
	target string
}

func (s swapOnOpenFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := os.Remove(name); err != nil {
		return nil, err
	}
	if err := os.Symlink(s.target, name); err != nil {
		return nil, err
	}
	return s.Fs.OpenFile(name, flag, perm)
}

func TestShredRefusesSwappedPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "outside.txt")
	victim := filepath.Join(dir, "victim.txt")
	require.NoError(t, os.WriteFile(target, []byte("keep me"), 0644))
	require.NoError(t, os.WriteFile(victim, []byte("shred me"), 0644))

	fs := swapOnOpenFs{Fs: afero.NewOsFs(), target: target}
	s := NewShredder(fs, testOptions(), testLogger(t))

	op, err := s.Shred(context.Background(), victim, []Algorithm{NullBytes}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Equal(t, StatusFailed, op.Status)
	assert.Zero(t, op.BytesOverwritten)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep me"), data)
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, []byte("123"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("456"), 0644))

	infoA, err := os.Lstat(a)
	require.NoError(t, err)
	infoB, err := os.Lstat(b)
	require.NoError(t, err)
	again, err := os.Stat(a)
	require.NoError(t, err)

	assert.True(t, sameFile(infoA, again))
	assert.False(t, sameFile(infoA, infoB), "same size and mode, different inode")

	mem := afero.NewMemMapFs()
	writeFile(t, mem, "/m", []byte("12"))
	writeFile(t, mem, "/n", []byte("12345"))
	short, err := mem.Stat("/m")
	require.NoError(t, err)
	long, err := mem.Stat("/n")
	require.NoError(t, err)
	assert.False(t, sameFile(short, long))
	assert.True(t, sameFile(long, long))

	memDir, err := mem.Stat("/")
	require.NoError(t, err)
	assert.False(t, sameFile(memDir, memDir))
}
