// Пакет stats — агрегаты по записям каталога: количество, средняя,
// минимальная и максимальная цена, суммарное количество, распределение по маркам.
// Чистые функции без побочных эффектов.
package stats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
)

// Summary — результат Compute.
type Summary struct {
	Total         int
	Average       float64
	Max           float64
	Min           float64
	TotalQuantity int
	// CountByBrand — количество записей по марке (точное совпадение, с учётом регистра)
	CountByBrand map[string]int

	// brands — марки в порядке первого появления
	brands []string
}

// Compute вычисляет агрегаты за один проход.
// Для пустого набора все значения нулевые, CountByBrand — пустая карта.
func Compute(records []model.PaintRecord) Summary {
	s := Summary{CountByBrand: make(map[string]int)}
	if len(records) == 0 {
		return s
	}

	var sum float64
	s.Max = records[0].Price
	s.Min = records[0].Price

	for _, r := range records {
		sum += r.Price
		if r.Price > s.Max {
			s.Max = r.Price
		}
		if r.Price < s.Min {
			s.Min = r.Price
		}
		s.TotalQuantity += r.Quantity

		if _, seen := s.CountByBrand[r.Brand]; !seen {
			s.brands = append(s.brands, r.Brand)
		}
		s.CountByBrand[r.Brand]++
	}

	s.Total = len(records)
	s.Average = sum / float64(s.Total)
	return s
}

// Brands возвращает марки в порядке их первого появления во входных данных.
func (s Summary) Brands() []string {
	out := make([]string, len(s.brands))
	copy(out, s.brands)
	return out
}

// MostCommonBrand возвращает самую частую марку и число её записей.
// При равенстве побеждает марка, первой достигшая максимума в порядке обхода.
// ok == false для пустого набора.
func (s Summary) MostCommonBrand() (brand string, count int, ok bool) {
	for _, b := range s.brands {
		if c := s.CountByBrand[b]; c > count {
			brand, count = b, c
		}
	}
	return brand, count, count > 0
}

// MostExpensive возвращает первую запись с максимальной ценой.
func MostExpensive(records []model.PaintRecord) (model.PaintRecord, bool) {
	if len(records) == 0 {
		return model.PaintRecord{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		if r.Price > best.Price {
			best = r
		}
	}
	return best, true
}

// BrandAverage — средняя цена по одной марке.
type BrandAverage struct {
	Brand   string
	Count   int
	Average float64
}

// AverageByBrand возвращает среднюю цену по каждой марке
// в порядке первого появления марки.
func AverageByBrand(records []model.PaintRecord) []BrandAverage {
	index := make(map[string]int)
	sums := make([]float64, 0)
	out := make([]BrandAverage, 0)

	for _, r := range records {
		i, ok := index[r.Brand]
		if !ok {
			i = len(out)
			index[r.Brand] = i
			out = append(out, BrandAverage{Brand: r.Brand})
			sums = append(sums, 0)
		}
		out[i].Count++
		sums[i] += r.Price
	}

	for i := range out {
		out[i].Average = sums[i] / float64(out[i].Count)
	}
	return out
}

// FilterByBrand возвращает записи, марка которых содержит query
// (подстрока без учёта регистра). Пустой запрос возвращает копию всех записей.
func FilterByBrand(records []model.PaintRecord, query string) []model.PaintRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.PaintRecord, 0, len(records))
	for _, r := range records {
		if q == "" || strings.Contains(strings.ToLower(r.Brand), q) {
			out = append(out, r)
		}
	}
	return out
}

// SortByPrice возвращает копию записей, упорядоченную по возрастанию цены.
// Порядок записей с одинаковой ценой сохраняется.
func SortByPrice(records []model.PaintRecord) []model.PaintRecord {
	out := append([]model.PaintRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Price < out[j].Price
	})
	return out
}

// SortByID возвращает копию записей, упорядоченную по ID.
// Числовые ID сравниваются как числа и идут раньше нечисловых,
// нечисловые сравниваются лексикографически.
func SortByID(records []model.PaintRecord) []model.PaintRecord {
	out := append([]model.PaintRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return lessID(out[i].ID, out[j].ID)
	})
	return out
}

func lessID(a, b string) bool {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
