package shred

import (
	"time"

	"github.com/google/uuid"
)

// Статусы операции
const (
	StatusCompleted    = "COMPLETED"
	StatusDeleteFailed = "DELETE_FAILED" // содержимое затёрто, имя осталось
	StatusFailed       = "FAILED"        // содержимое не затёрто (или затёрто частично)
	StatusDryRun       = "DRY_RUN"
	StatusRunning      = "RUNNING"
)

// ShredOperation запись аудита по одному пути
type ShredOperation struct {
	ID               string
	Path             string
	Algorithm        string
	Passes           int
	ChunkSize        int64
	Length           int64
	Status           string
	StartTime        time.Time
	EndTime          *time.Time
	BytesOverwritten uint64
	SpeedMBps        float64
	Error            string
	ErrorKind        string
}

func newOperation(path string, algs []Algorithm, chunkSize int) *ShredOperation {
	return &ShredOperation{
		ID:        uuid.NewString(),
		Path:      path,
		Algorithm: sequenceName(algs),
		Passes:    totalPasses(algs),
		ChunkSize: int64(chunkSize),
		Status:    StatusRunning,
		StartTime: time.Now(),
	}
}

func (op *ShredOperation) complete(status string) {
	now := time.Now()
	op.EndTime = &now
	op.Status = status

	if elapsed := now.Sub(op.StartTime).Seconds(); elapsed > 0 {
		op.SpeedMBps = float64(op.BytesOverwritten) / (1024 * 1024) / elapsed
	}
}

func (op *ShredOperation) fail(status string, err error) {
	op.Error = err.Error()
	op.ErrorKind = KindName(KindOf(err))
	op.complete(status)
}

// Overwritten содержимое файла полностью перезаписано
func (op *ShredOperation) Overwritten() bool {
	return op.Status == StatusCompleted || op.Status == StatusDeleteFailed
}
