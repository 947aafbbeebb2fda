package shred

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// BufferPool пул буферов чанков по классам размеров
type BufferPool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

var chunkPool = &BufferPool{
	pools: make(map[int]*sync.Pool),
}

// GetBuffer получает буфер из пула или создает новый
func GetBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}
	return chunkPool.get(size)
}

// PutBuffer обнуляет буфер и возвращает его в пул.
// Обнуление обязательно: в буфере могли быть прочитанные данные файла.
func PutBuffer(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	chunkPool.put(buf)
}

func (bp *BufferPool) get(size int) []byte {
	poolSize := poolSizeFor(size)

	bp.mu.RLock()
	pool, exists := bp.pools[poolSize]
	bp.mu.RUnlock()

	if !exists {
		bp.mu.Lock()
		pool, exists = bp.pools[poolSize]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return make([]byte, poolSize)
				},
			}
			bp.pools[poolSize] = pool
		}
		bp.mu.Unlock()
	}

	buf := pool.Get().([]byte)
	return buf[:size]
}

func (bp *BufferPool) put(buf []byte) {
	full := buf[:cap(buf)]
	clear(full)

	bp.mu.RLock()
	pool, exists := bp.pools[cap(buf)]
	bp.mu.RUnlock()

	if exists {
		pool.Put(full)
	}
}

// poolSizeFor степени двойки до 16MB, дальше округление до 4KB
func poolSizeFor(size int) int {
	sizes := []int{1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}

	for _, poolSize := range sizes {
		if size <= poolSize {
			return poolSize
		}
	}

	return ((size + 4095) / 4096) * 4096
}

// FillBufferPattern заполняет буфер одним значением
func FillBufferPattern(buf []byte, pattern byte) {
	for i := range buf {
		buf[i] = pattern
	}
}

// FillRandom заполняет буфер криптографически случайными данными
func FillRandom(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("random data generation failed: %w", err)
	}
	return nil
}
