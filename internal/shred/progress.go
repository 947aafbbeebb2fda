package shred

import "sync"

// ProgressSink получает долю выполнения в диапазоне [0.0, 1.0]
type ProgressSink interface {
	Report(fraction float64)
}

// ProgressFunc адаптер функции к ProgressSink
type ProgressFunc func(fraction float64)

func (f ProgressFunc) Report(fraction float64) { f(fraction) }

// SinkFactory выдаёт приёмник прогресса для каждого файла.
// При нескольких воркерах может вызываться конкурентно.
type SinkFactory func(path string) ProgressSink

type nopSink struct{}

func (nopSink) Report(float64) {}

// progressTracker считает байты по всем проходам одного файла.
// Значения не убывают, финальное значение всегда ровно 1.0.
type progressTracker struct {
	sink  ProgressSink
	total int64
	done  int64
	last  float64
	mu    sync.Mutex
}

func newProgressTracker(sink ProgressSink, total int64) *progressTracker {
	if sink == nil {
		sink = nopSink{}
	}
	return &progressTracker{sink: sink, total: total, last: -1}
}

// advance учитывает обработанный чанк и сообщает прогресс
func (pt *progressTracker) advance(n int64) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.done += n
	fraction := 1.0
	if pt.total > 0 && pt.done < pt.total {
		fraction = float64(pt.done) / float64(pt.total)
	}
	if fraction < pt.last {
		fraction = pt.last
	}
	pt.last = fraction
	pt.sink.Report(fraction)
}

// finish гарантирует завершающий вызов с 1.0
func (pt *progressTracker) finish() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.last == 1.0 {
		return
	}
	pt.last = 1.0
	pt.sink.Report(1.0)
}
