package shred

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"secureshred/internal/logging"
)

// WalkOptions параметры обхода каталога
type WalkOptions struct {
	Workers           int
	RemoveDirectories bool
	BestEffort        bool
}

// Walker обходит дерево каталогов и отдаёт обычные файлы координатору
type Walker struct {
	fs       afero.Fs
	shredder *Shredder
	opts     WalkOptions
	logger   *logging.EnterpriseLogger
}

func NewWalker(fs afero.Fs, shredder *Shredder, opts WalkOptions, logger *logging.EnterpriseLogger) *Walker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Walker{fs: fs, shredder: shredder, opts: opts, logger: logger}
}

type walkResult struct {
	mu  sync.Mutex
	ops []*ShredOperation
	err *multierror.Error
}

func (r *walkResult) add(op *ShredOperation, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op != nil {
		r.ops = append(r.ops, op)
	}
	if err != nil {
		r.err = multierror.Append(r.err, err)
	}
}

func (r *walkResult) failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err != nil
}

// Walk затирает root: обычный файл напрямую, каталог целиком.
// Без BestEffort первая ошибка останавливает запуск новых файлов, начатые дорабатывают.
func (w *Walker) Walk(ctx context.Context, root string, algs []Algorithm, sinks SinkFactory) ([]*ShredOperation, error) {
	if sinks == nil {
		sinks = func(string) ProgressSink { return nopSink{} }
	}

	info, err := lstat(w.fs, root)
	if err != nil {
		err = newShredError(ErrAccess, root, algs, err)
		op := newOperation(root, algs, w.shredder.opts.ChunkSize)
		op.fail(StatusFailed, err)
		return []*ShredOperation{op}, err
	}

	switch {
	case info.Mode().IsRegular():
		op, err := w.shredder.Shred(ctx, root, algs, sinks(root))
		return []*ShredOperation{op}, err
	case !info.IsDir():
		err = newShredError(ErrUnsupportedType, root, algs, cerr.Newf("mode %s", info.Mode().Type()))
		op := newOperation(root, algs, w.shredder.opts.ChunkSize)
		op.fail(StatusFailed, err)
		return []*ShredOperation{op}, err
	}

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := &walkResult{}
	reject := func(path string, err error) {
		op := newOperation(path, algs, w.shredder.opts.ChunkSize)
		op.fail(StatusFailed, err)
		result.add(op, err)
		if !w.opts.BestEffort {
			cancel()
		}
	}

	files := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < w.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range files {
				if walkCtx.Err() != nil {
					continue
				}
				op, err := w.shredder.Shred(walkCtx, path, algs, sinks(path))
				result.add(op, err)
				if err != nil && !w.opts.BestEffort {
					cancel()
				}
			}
		}()
	}

	// Обход в ширину, каталоги в порядке обнаружения
	dirs := []string{root}
	queue := []string{root}
	for len(queue) > 0 && walkCtx.Err() == nil {
		dir := queue[0]
		queue = queue[1:]

		entries, err := afero.ReadDir(w.fs, dir)
		if err != nil {
			reject(dir, newShredError(ErrAccess, dir, algs, err))
			continue
		}

		for _, entry := range entries {
			if walkCtx.Err() != nil {
				break
			}
			path := filepath.Join(dir, entry.Name())

			// ReadDir в afero следует по ссылкам, поэтому тип берём из Lstat
			entryInfo, err := lstat(w.fs, path)
			if err != nil {
				reject(path, newShredError(ErrAccess, path, algs, err))
				continue
			}

			mode := entryInfo.Mode()
			switch {
			case mode.IsRegular():
				select {
				case files <- path:
				case <-walkCtx.Done():
				}
			case mode.IsDir():
				dirs = append(dirs, path)
				queue = append(queue, path)
			default:
				w.logger.Log("WARN", "Skipping unsupported file type", "path", path, "mode", mode.Type().String())
				reject(path, newShredError(ErrUnsupportedType, path, algs, cerr.Newf("mode %s", mode.Type())))
			}
		}
	}
	close(files)
	wg.Wait()

	switch {
	case !w.opts.RemoveDirectories || result.failed() || ctx.Err() != nil:
	case w.shredder.opts.DryRun:
		for i := len(dirs) - 1; i >= 0; i-- {
			w.logger.Log("INFO", "DRY RUN: directory would be removed", "path", dirs[i])
		}
	default:
		// Глубже лежащие каталоги обнаружены позже, удаляем с конца
		for i := len(dirs) - 1; i >= 0; i-- {
			if err := w.fs.Remove(dirs[i]); err != nil {
				err = newShredError(ErrDirectoryRemove, dirs[i], nil, err)
				w.logger.Log("ERROR", "Directory not removed", "path", dirs[i], "error", err.Error())
				result.add(nil, err)
				if !w.opts.BestEffort {
					break
				}
				continue
			}
			w.logger.Log("DEBUG", "Directory removed", "path", dirs[i])
		}
	}

	sort.Slice(result.ops, func(i, j int) bool { return result.ops[i].Path < result.ops[j].Path })

	if result.err == nil {
		if err := ctx.Err(); err != nil {
			return result.ops, cerr.Wrap(err, "walk interrupted")
		}
		return result.ops, nil
	}
	if !w.opts.BestEffort {
		// В режиме fail-fast возвращаем первую ошибку, она и остановила обход
		return result.ops, result.err.Errors[0]
	}
	return result.ops, result.err.ErrorOrNil()
}
