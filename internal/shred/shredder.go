package shred

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"secureshred/internal/config"
	"secureshred/internal/logging"
)

// Options параметры координатора
type Options struct {
	ChunkSize            int
	SyncEachPass         bool
	TruncateBeforeDelete bool
	RenameBeforeDelete   bool
	MaxSpeedMBps         float64
	Cipher               CipherKind
	DryRun               bool
}

// OptionsFromConfig переносит секцию shred конфигурации
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	kind, err := ParseCipherKind(cfg.Shred.PolymorphicCipher)
	if err != nil {
		return Options{}, err
	}
	return Options{
		ChunkSize:            int(cfg.Shred.ChunkSize),
		SyncEachPass:         cfg.Shred.SyncEachPass,
		TruncateBeforeDelete: cfg.Shred.TruncateBeforeDelete,
		RenameBeforeDelete:   cfg.Shred.RenameBeforeDelete,
		MaxSpeedMBps:         cfg.Shred.MaxSpeedMBps,
		Cipher:               kind,
	}, nil
}

// Shredder затирает один файл: проходы строго последовательно на одном дескрипторе, затем удаление
type Shredder struct {
	fs       afero.Fs
	opts     Options
	logger   *logging.EnterpriseLogger
	executor *OverwriteExecutor
	locks    *pathLocks
}

func NewShredder(fs afero.Fs, opts Options, logger *logging.EnterpriseLogger) *Shredder {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1024
	}
	if opts.Cipher == "" {
		opts.Cipher = CipherChaCha20
	}
	return &Shredder{
		fs:       fs,
		opts:     opts,
		logger:   logger,
		executor: NewOverwriteExecutor(opts.ChunkSize, opts.SyncEachPass),
		locks:    newPathLocks(),
	}
}

// Shred затирает обычный файл последовательностью алгоритмов и удаляет его.
// Контекст проверяется только до начала: начатое затирание не прерывается.
func (s *Shredder) Shred(ctx context.Context, path string, algs []Algorithm, sink ProgressSink) (*ShredOperation, error) {
	op := newOperation(path, algs, s.opts.ChunkSize)

	if len(algs) == 0 {
		err := newShredError(ErrInvalidAlgorithm, path, nil, cerr.New("no algorithm selected"))
		op.fail(StatusFailed, err)
		return op, err
	}

	if err := ctx.Err(); err != nil {
		op.fail(StatusFailed, err)
		return op, cerr.Wrap(err, "shred not started")
	}

	info, err := lstat(s.fs, path)
	if err != nil {
		err = newShredError(ErrAccess, path, algs, err)
		op.fail(StatusFailed, err)
		return op, err
	}
	if !info.Mode().IsRegular() {
		err = newShredError(ErrUnsupportedType, path, algs, cerr.Newf("mode %s", info.Mode().Type()))
		op.fail(StatusFailed, err)
		return op, err
	}

	unlock := s.locks.lock(filepath.Clean(path))
	defer unlock()

	if s.opts.DryRun {
		op.Length = info.Size()
		s.logger.Log("INFO", "DRY RUN: file would be shredded", "path", path, "algorithm", op.Algorithm, "bytes", op.Length)
		op.complete(StatusDryRun)
		return op, nil
	}

	s.logger.Log("INFO", "Shred started", "id", op.ID, "path", path, "algorithm", op.Algorithm, "passes", op.Passes)

	f, err := s.fs.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		err = newShredError(ErrAccess, path, algs, err)
		op.fail(StatusFailed, err)
		return op, err
	}

	// Длина фиксируется один раз и не перечитывается
	opened, err := f.Stat()
	if err != nil {
		_ = f.Close()
		err = newShredError(ErrAccess, path, algs, err)
		op.fail(StatusFailed, err)
		return op, err
	}
	if !sameFile(info, opened) {
		_ = f.Close()
		err = newShredError(ErrUnsupportedType, path, algs, cerr.New("path changed between lstat and open"))
		s.logger.Log("ERROR", "File replaced before open", "id", op.ID, "path", path)
		op.fail(StatusFailed, err)
		return op, err
	}
	length := opened.Size()
	op.Length = length

	tracker := newProgressTracker(sink, length*int64(op.Passes))

	if err := s.overwrite(f, length, algs, op, tracker); err != nil {
		_ = f.Close()
		err = newShredError(ErrIO, path, algs, err)
		s.logger.Log("ERROR", "Overwrite failed", "id", op.ID, "path", path, "algorithm", op.Algorithm, "error", err.Error())
		op.fail(StatusFailed, err)
		return op, err
	}

	if err := s.finalize(f); err != nil {
		err = newShredError(ErrIO, path, algs, err)
		s.logger.Log("ERROR", "Finalize failed", "id", op.ID, "path", path, "error", err.Error())
		op.fail(StatusFailed, err)
		return op, err
	}
	tracker.finish()

	if err := s.unlink(path); err != nil {
		err = newShredError(ErrDelete, path, algs, err)
		s.logger.Log("ERROR", "File overwritten but not deleted", "id", op.ID, "path", path, "algorithm", op.Algorithm, "error", err.Error())
		op.fail(StatusDeleteFailed, err)
		return op, err
	}

	op.complete(StatusCompleted)
	s.logger.Log("INFO", "Shred completed", "id", op.ID, "path", path, "algorithm", op.Algorithm,
		"bytes", op.BytesOverwritten, "speed_mbps", op.SpeedMBps)
	return op, nil
}

func (s *Shredder) overwrite(f File, length int64, algs []Algorithm, op *ShredOperation, tracker *progressTracker) error {
	ps, err := NewPatternSource(s.opts.ChunkSize)
	if err != nil {
		return err
	}

	target := NewThrottledFile(f, s.opts.MaxSpeedMBps, s.opts.ChunkSize)

	for _, alg := range algs {
		passes, cleanup, err := planPasses(alg, ps, s.opts.Cipher, s.opts.ChunkSize)
		if err != nil {
			return err
		}

		for _, pass := range passes {
			if err := s.executor.Run(target, length, pass, tracker); err != nil {
				cleanup()
				return cerr.Wrapf(err, "%s pass %d", alg, pass.Index)
			}
			op.BytesOverwritten += uint64(length)
			s.logger.Log("DEBUG", "Pass completed", "path", op.Path, "algorithm", alg.String(), "pass", pass.Index+1, "total", len(passes))
		}
		cleanup()
	}

	return nil
}

// sameFile проверяет, что открытый дескриптор указывает на тот же обычный файл, что и lstat.
// Для FileInfo реальной ФС дополнительно сравниваются устройство и inode.
func sameFile(before, after os.FileInfo) bool {
	if !after.Mode().IsRegular() || before.Mode() != after.Mode() || before.Size() != after.Size() {
		return false
	}
	if before.Sys() != nil && after.Sys() != nil {
		return os.SameFile(before, after)
	}
	return true
}

// finalize сбрасывает данные на диск, при необходимости обрезает файл и закрывает его
func (s *Shredder) finalize(f File) error {
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return cerr.Wrap(err, "sync")
	}
	if s.opts.TruncateBeforeDelete {
		if err := f.Truncate(0); err != nil {
			_ = f.Close()
			return cerr.Wrap(err, "truncate")
		}
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return cerr.Wrap(err, "sync after truncate")
		}
	}
	return cerr.Wrap(f.Close(), "close")
}

// unlink удаляет запись каталога, при необходимости после переименования в случайное имя
func (s *Shredder) unlink(path string) error {
	target := path
	if s.opts.RenameBeforeDelete {
		renamed, err := s.renameRandom(path)
		if err != nil {
			// Удаляем под исходным именем
			s.logger.Log("WARN", "Rename before delete failed", "path", path, "error", err.Error())
		} else {
			target = renamed
		}
	}
	return s.fs.Remove(target)
}

const nameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func (s *Shredder) renameRandom(path string) (string, error) {
	dir := filepath.Dir(path)
	size := len(filepath.Base(path))

	for attempt := 0; attempt < 3; attempt++ {
		name, err := randomName(size)
		if err != nil {
			return "", err
		}
		candidate := filepath.Join(dir, name)
		if _, err := lstat(s.fs, candidate); err == nil {
			continue
		}
		if err := s.fs.Rename(path, candidate); err != nil {
			return "", err
		}
		return candidate, nil
	}
	return "", cerr.Newf("no free random name in %s", dir)
}

func randomName(size int) (string, error) {
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	for i, b := range raw {
		raw[i] = nameAlphabet[int(b)%len(nameAlphabet)]
	}
	return string(raw), nil
}

// lstat не следует по символическим ссылкам, если файловая система это умеет
func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

// pathLocks гарантирует одного писателя на путь
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*pathLock)}
}

func (pl *pathLocks) lock(path string) func() {
	pl.mu.Lock()
	l, ok := pl.locks[path]
	if !ok {
		l = &pathLock{}
		pl.locks[path] = l
	}
	l.refs++
	pl.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		pl.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(pl.locks, path)
		}
		pl.mu.Unlock()
	}
}
