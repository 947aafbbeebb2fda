package shred

import (
	"fmt"

	cerr "github.com/cockroachdb/errors"
)

// Виды ошибок. Сравниваются через errors.Is.
var (
	ErrAccess           = cerr.New("path cannot be accessed")
	ErrUnsupportedType  = cerr.New("unsupported file type")
	ErrIO               = cerr.New("i/o transfer mismatch")
	ErrInvalidAlgorithm = cerr.New("invalid algorithm")
	ErrDelete           = cerr.New("overwritten but not deleted")
	ErrDirectoryRemove  = cerr.New("directory not removed")
)

// ShredError ошибка операции затирания с путём и алгоритмом
type ShredError struct {
	Kind      error
	Path      string
	Algorithm string
	Err       error
}

func (e *ShredError) Error() string {
	msg := e.Kind.Error()
	if e.Algorithm != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Algorithm)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ShredError) Unwrap() error { return e.Err }

func (e *ShredError) Is(target error) bool { return target == e.Kind }

func newShredError(kind error, path string, algs []Algorithm, err error) *ShredError {
	se := &ShredError{Kind: kind, Path: path, Err: err}
	if len(algs) > 0 {
		se.Algorithm = sequenceName(algs)
	}
	if err != nil {
		se.Err = cerr.WithStack(err)
	}
	return se
}

// KindOf возвращает вид ошибки или nil
func KindOf(err error) error {
	var se *ShredError
	if cerr.As(err, &se) {
		return se.Kind
	}
	return nil
}

// KindName имя вида ошибки для отчётов и журналов
func KindName(kind error) string {
	switch kind {
	case ErrAccess:
		return "AccessError"
	case ErrUnsupportedType:
		return "UnsupportedTypeError"
	case ErrIO:
		return "IoError"
	case ErrInvalidAlgorithm:
		return "InvalidAlgorithmError"
	case ErrDelete:
		return "DeleteError"
	case ErrDirectoryRemove:
		return "DirectoryRemoveError"
	default:
		return ""
	}
}

// shortTransfer ошибка несовпадения числа переданных байт
func shortTransfer(op string, offset int64, want, got int, err error) error {
	if err != nil {
		return cerr.Wrapf(err, "%s at offset %d: transferred %d of %d bytes", op, offset, got, want)
	}
	return cerr.Newf("%s at offset %d: transferred %d of %d bytes", op, offset, got, want)
}
