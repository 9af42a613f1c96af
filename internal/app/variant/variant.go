package variant

import (
	"math/rand"

	"github.com/linklytics/linklytics/internal/app/models"
)

// Source отдаёт случайное значение в [0, 1).
// Интерфейс позволяет подменять источник в тестах.
type Source interface {
	Float64() float64
}

// Selector выполняет взвешенный выбор назначения для A/B-теста
type Selector struct {
	src Source
}

// NewSelector создаёт селектор с указанным источником случайности.
// При nil используется источник по умолчанию из math/rand.
func NewSelector(src Source) *Selector {
	if src == nil {
		src = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Selector{src: src}
}

// Select выбирает назначение по весам. Тянется одно значение r в [0, 100);
// назначения обходятся по порядку с накоплением весов, выбирается первое,
// у которого накопленный вес >= r. Так как веса в сумме дают ровно 100,
// выбор всегда успешен. Возвращается URL и 0-based индекс варианта.
func (s *Selector) Select(destinations []models.Destination) (string, int) {
	r := s.src.Float64() * 100

	cumulative := 0.0
	for i, d := range destinations {
		cumulative += float64(d.Weight)
		if r <= cumulative {
			return d.URL, i
		}
	}

	// достижимо только при весах, не дающих в сумме 100
	last := len(destinations) - 1
	return destinations[last].URL, last
}
