package shred

import (
	"crypto/cipher"
	"io"

	cerr "github.com/cockroachdb/errors"
)

// File открытый файл, над которым работает исполнитель. afero.File удовлетворяет интерфейсу.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	Sync() error
	Truncate(size int64) error
	Close() error
}

// Pass один проход перезаписи
type Pass struct {
	Algorithm Algorithm
	Index     int

	// needsRead: чанк читается с диска и передаётся в fill как исходные данные
	needsRead bool
	begin     func() error
	fill      func(buf []byte, offset int64) error
}

// OverwriteExecutor перезаписывает файл чанками на месте
type OverwriteExecutor struct {
	chunkSize    int
	syncEachPass bool
}

func NewOverwriteExecutor(chunkSize int, syncEachPass bool) *OverwriteExecutor {
	return &OverwriteExecutor{chunkSize: chunkSize, syncEachPass: syncEachPass}
}

// Run выполняет один проход: floor(length/chunk) полных чанков и остаток.
// Любое несовпадение числа байт при чтении, позиционировании или записи прерывает проход.
func (ex *OverwriteExecutor) Run(f File, length int64, pass *Pass, tracker *progressTracker) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return cerr.Wrap(err, "seek to start")
	}

	if pass.begin != nil {
		if err := pass.begin(); err != nil {
			return cerr.Wrapf(err, "prepare %s pass %d", pass.Algorithm, pass.Index)
		}
	}

	buf := GetBuffer(ex.chunkSize)
	defer PutBuffer(buf)

	chunk := int64(ex.chunkSize)
	fullChunks := length / chunk
	remainder := int(length % chunk)

	var offset int64
	process := func(n int) error {
		b := buf[:n]

		if pass.needsRead {
			got, err := io.ReadFull(f, b)
			if got != n {
				return shortTransfer("read", offset, n, got, err)
			}
			pos, err := f.Seek(offset, io.SeekStart)
			if err != nil {
				return cerr.Wrapf(err, "seek back to offset %d", offset)
			}
			if pos != offset {
				return cerr.Newf("seek back landed at %d, want %d", pos, offset)
			}
		}

		if err := pass.fill(b, offset); err != nil {
			return cerr.Wrapf(err, "fill chunk at offset %d", offset)
		}

		written, err := f.Write(b)
		if written != n || err != nil {
			return shortTransfer("write", offset, n, written, err)
		}

		offset += int64(n)
		tracker.advance(int64(n))
		return nil
	}

	for i := int64(0); i < fullChunks; i++ {
		if err := process(ex.chunkSize); err != nil {
			return err
		}
	}
	if remainder > 0 {
		if err := process(remainder); err != nil {
			return err
		}
	}

	if ex.syncEachPass {
		if err := f.Sync(); err != nil {
			return cerr.Wrapf(err, "sync after %s pass %d", pass.Algorithm, pass.Index)
		}
	}

	return nil
}

// planPasses строит проходы алгоритма. cleanup уничтожает ключевой материал.
func planPasses(alg Algorithm, ps *PatternSource, cipherKind CipherKind, chunkSize int) (passes []*Pass, cleanup func(), err error) {
	cleanup = func() {}

	patternPass := func(index int) *Pass {
		return &Pass{
			Algorithm: alg,
			Index:     index,
			fill: func(buf []byte, offset int64) error {
				pattern, err := ps.Pattern(alg, index, len(buf))
				if err != nil {
					return err
				}
				copy(buf, pattern)
				return nil
			},
		}
	}

	switch alg {
	case NullBytes, RandomData:
		return []*Pass{patternPass(0)}, cleanup, nil

	case DoD3Pass:
		return []*Pass{patternPass(0), patternPass(1), patternPass(2)}, cleanup, nil

	case Gutmann35:
		// Один проход: k-й чанк файла получает паттерн k mod 35
		return []*Pass{{
			Algorithm: alg,
			fill: func(buf []byte, offset int64) error {
				pattern, err := ps.Pattern(alg, GutmannIndex(offset, chunkSize), len(buf))
				if err != nil {
					return err
				}
				copy(buf, pattern)
				return nil
			},
		}}, cleanup, nil

	case Polymorphic12Pass:
		km, err := NewKeyMaterial(cipherKind)
		if err != nil {
			return nil, cleanup, err
		}

		for i := 0; i < polymorphicPasses; i++ {
			var stream cipher.Stream
			passes = append(passes, &Pass{
				Algorithm: alg,
				Index:     i,
				needsRead: true,
				begin: func() error {
					nonce, err := km.NewNonce()
					if err != nil {
						return err
					}
					stream, err = km.Stream(nonce)
					return err
				},
				fill: func(buf []byte, offset int64) error {
					// Поверх прочитанных данных: каждый проход шифрует результат предыдущего
					stream.XORKeyStream(buf, buf)
					return nil
				},
			})
		}
		return passes, km.Destroy, nil

	default:
		return nil, cleanup, &ShredError{Kind: ErrInvalidAlgorithm, Algorithm: alg.String()}
	}
}
