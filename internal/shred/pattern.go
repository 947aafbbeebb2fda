package shred

import (
	"crypto/rand"
	"fmt"
)

// PatternSource выдаёт буферы заполнения для алгоритмов с фиксированными паттернами.
// Один экземпляр живёт в пределах одного затирания файла.
type PatternSource struct {
	chunkSize int
	zeros     []byte
	ones      []byte
	random    []byte
	gutmann   [gutmannPatterns][]byte
}

// NewPatternSource готовит паттерны для буфера размера chunkSize.
// Случайный буфер генерируется один раз и переиспользуется для всего файла.
func NewPatternSource(chunkSize int) (*PatternSource, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size: %d", chunkSize)
	}

	ps := &PatternSource{
		chunkSize: chunkSize,
		zeros:     make([]byte, chunkSize),
		ones:      make([]byte, chunkSize),
		random:    make([]byte, chunkSize),
	}
	FillBufferPattern(ps.ones, 0xFF)

	if _, err := rand.Read(ps.random); err != nil {
		return nil, fmt.Errorf("random data generation failed: %w", err)
	}

	for i := 0; i < gutmannPatterns; i++ {
		ps.gutmann[i] = make([]byte, chunkSize)
		FillBufferPattern(ps.gutmann[i], byte(i))
	}

	return ps, nil
}

// Pattern возвращает ровно size байт паттерна для прохода pass.
// Для size меньше буфера возвращается префикс.
func (ps *PatternSource) Pattern(alg Algorithm, pass int, size int) ([]byte, error) {
	if size < 0 || size > ps.chunkSize {
		return nil, fmt.Errorf("pattern size %d out of range (chunk %d)", size, ps.chunkSize)
	}

	switch alg {
	case NullBytes:
		return ps.zeros[:size], nil

	case RandomData:
		return ps.random[:size], nil

	case Gutmann35:
		if pass < 0 || pass >= gutmannPatterns {
			return nil, fmt.Errorf("invalid gutmann pattern index: %d", pass)
		}
		return ps.gutmann[pass][:size], nil

	case DoD3Pass:
		switch pass {
		case 0:
			return ps.zeros[:size], nil
		case 1:
			return ps.ones[:size], nil
		case 2:
			// Третий проход: свежие случайные данные на каждый чанк
			data := make([]byte, size)
			if err := FillRandom(data); err != nil {
				return nil, err
			}
			return data, nil
		}
		return nil, fmt.Errorf("invalid DoD pass: %d", pass)

	default:
		return nil, fmt.Errorf("algorithm %s has no fixed pattern", alg)
	}
}

// GutmannIndex номер паттерна Gutmann для чанка по смещению offset
func GutmannIndex(offset int64, chunkSize int) int {
	return int((offset / int64(chunkSize)) % gutmannPatterns)
}
