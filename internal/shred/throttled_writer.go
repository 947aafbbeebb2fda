package shred

import (
	"context"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledFile ограничивает скорость записи в файл
type ThrottledFile struct {
	File
	limiter *rate.Limiter
}

// NewThrottledFile оборачивает файл. maxSpeedMBps <= 0 означает без ограничения.
// burst равен размеру чанка: больше executor за одну запись не передаёт.
func NewThrottledFile(f File, maxSpeedMBps float64, chunkSize int) File {
	if maxSpeedMBps <= 0 {
		return f
	}
	if chunkSize < 1 {
		chunkSize = 1
	}
	limiter := rate.NewLimiter(rate.Limit(maxSpeedMBps*1024*1024), chunkSize)
	// Бакет создаётся полным, опустошаем его, чтобы лимит действовал с первого байта
	limiter.AllowN(time.Now(), chunkSize)
	return &ThrottledFile{
		File:    f,
		limiter: limiter,
	}
}

func (tf *ThrottledFile) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	// Затирание не прерывается по контексту, ожидание только по лимиту
	if err := tf.limiter.WaitN(context.Background(), len(data)); err != nil {
		return 0, err
	}
	return tf.File.Write(data)
}

var _ io.Writer = (*ThrottledFile)(nil)
