package shred

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"secureshred/internal/logging"
)

const testChunk = 64

// recordingFs пишет в MemMapFs и запоминает каждый записанный чанк
type recordingFs struct {
	afero.Fs

	mu          sync.Mutex
	writes      map[string][][]byte
	shortWrites map[string]bool
	failRemove  bool
	active      map[string]int
	maxActive   map[string]int
}

func newRecordingFs() *recordingFs {
	return &recordingFs{
		Fs:          afero.NewMemMapFs(),
		writes:      make(map[string][][]byte),
		shortWrites: make(map[string]bool),
		active:      make(map[string]int),
		maxActive:   make(map[string]int),
	}
}

func (r *recordingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := r.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if flag&(os.O_RDWR|os.O_WRONLY) != 0 {
		r.mu.Lock()
		r.active[name]++
		if r.active[name] > r.maxActive[name] {
			r.maxActive[name] = r.active[name]
		}
		r.mu.Unlock()
	}
	return &recordingFile{File: f, fs: r, name: name, writable: flag&(os.O_RDWR|os.O_WRONLY) != 0}, nil
}

func (r *recordingFs) Remove(name string) error {
	if r.failRemove {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
	}
	return r.Fs.Remove(name)
}

func (r *recordingFs) chunks(name string) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes[name]
}

type recordingFile struct {
	afero.File
	fs       *recordingFs
	name     string
	writable bool
	closed   bool
}

func (f *recordingFile) Write(p []byte) (int, error) {
	f.fs.mu.Lock()
	short := f.fs.shortWrites[f.name]
	f.fs.writes[f.name] = append(f.fs.writes[f.name], bytes.Clone(p))
	f.fs.mu.Unlock()

	if short && len(p) > 1 {
		return f.File.Write(p[:len(p)/2])
	}
	return f.File.Write(p)
}

func (f *recordingFile) Close() error {
	if f.writable && !f.closed {
		f.fs.mu.Lock()
		f.fs.active[f.name]--
		f.fs.mu.Unlock()
	}
	f.closed = true
	return f.File.Close()
}

// progressRecorder собирает все значения прогресса
type progressRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (p *progressRecorder) Report(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, fraction)
}

func (p *progressRecorder) snapshot() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.values...)
}

func testLogger(t *testing.T) *logging.EnterpriseLogger {
	return logging.NewFromZap(zaptest.NewLogger(t))
}

func testOptions() Options {
	return Options{
		ChunkSize:            testChunk,
		SyncEachPass:         true,
		TruncateBeforeDelete: true,
		RenameBeforeDelete:   true,
		Cipher:               CipherChaCha20,
	}
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, data, 0644))
}

func sequentialBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}

func openMem(t *testing.T, data []byte) (afero.Fs, afero.File) {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/target.bin", data)
	f, err := fs.OpenFile("/target.bin", os.O_RDWR, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return fs, f
}
