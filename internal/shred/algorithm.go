package shred

import (
	"strings"
)

// Algorithm определяет алгоритм перезаписи
type Algorithm int

const (
	NullBytes Algorithm = iota
	RandomData
	DoD3Pass
	Gutmann35
	Polymorphic12Pass
)

const (
	gutmannPatterns   = 35
	polymorphicPasses = 12
)

var algorithmNames = map[Algorithm]string{
	NullBytes:         "nullbytes",
	RandomData:        "randomdata",
	DoD3Pass:          "dod",
	Gutmann35:         "gutmann",
	Polymorphic12Pass: "polymorphic",
}

var algorithmDescriptions = map[Algorithm]string{
	NullBytes:         "one pass of 0x00 bytes",
	RandomData:        "one pass of a random buffer generated once per file",
	DoD3Pass:          "DoD 5220.22-M: 0x00, 0xFF, random",
	Gutmann35:         "35 fixed byte-value patterns laid out in 35-chunk blocks",
	Polymorphic12Pass: "12 passes of stream cipher output over the current contents",
}

// Algorithms все поддерживаемые алгоритмы в порядке объявления
func Algorithms() []Algorithm {
	return []Algorithm{NullBytes, RandomData, DoD3Pass, Gutmann35, Polymorphic12Pass}
}

// InteractiveSequence фиксированная последовательность интерактивного режима
func InteractiveSequence() []Algorithm {
	return []Algorithm{NullBytes, RandomData, Gutmann35, Polymorphic12Pass}
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return "unknown"
}

// Description краткое описание алгоритма
func (a Algorithm) Description() string {
	return algorithmDescriptions[a]
}

// Passes возвращает количество полных проходов по файлу.
// Gutmann выполняется одним проходом: 35 паттернов чередуются по блокам.
func (a Algorithm) Passes() int {
	switch a {
	case DoD3Pass:
		return 3
	case Polymorphic12Pass:
		return polymorphicPasses
	default:
		return 1
	}
}

// ParseAlgorithm проверяет имя алгоритма
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for alg, algName := range algorithmNames {
		if algName == normalized {
			return alg, nil
		}
	}
	return 0, &ShredError{Kind: ErrInvalidAlgorithm, Algorithm: name}
}

// ParseAlgorithms разбирает список имён
func ParseAlgorithms(names []string) ([]Algorithm, error) {
	algs := make([]Algorithm, 0, len(names))
	for _, name := range names {
		alg, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		algs = append(algs, alg)
	}
	return algs, nil
}

func sequenceName(algs []Algorithm) string {
	names := make([]string, len(algs))
	for i, a := range algs {
		names[i] = a.String()
	}
	return strings.Join(names, "+")
}

func totalPasses(algs []Algorithm) int {
	n := 0
	for _, a := range algs {
		n += a.Passes()
	}
	return n
}
