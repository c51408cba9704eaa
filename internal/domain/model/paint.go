// Пакет model — доменные модели Paint Catalog.
// PaintRecord — запись каталога красок (коллекция pinturas удалённого API).
package model

// PaintRecord — запись о краске в каталоге.
// Удалённый API — единственный источник истины; ID назначается сервером.
type PaintRecord struct {
	// ID — идентификатор, назначенный сервером (строка или число в JSON,
	// внутри всегда строка). Клиент никогда не задаёт и не изменяет его.
	ID string
	// Brand — марка, 2-50 символов после обрезки пробелов
	Brand string
	// Price — цена, включительно [50, 500]
	Price float64
	// Color — цвет в формате #RRGGBB, в верхнем регистре
	Color string
	// Quantity — количество, целое, включительно [1, 400]
	Quantity int
}

// PaintInput — сырые значения полей формы до валидации.
// Единственный способ получить PaintRecord из PaintInput — validation.Parse.
type PaintInput struct {
	Brand    string
	Price    string
	Color    string
	Quantity string
}

// Границы допустимых значений полей PaintRecord.
const (
	BrandMinLen = 2
	BrandMaxLen = 50
	PriceMin    = 50
	PriceMax    = 500
	QuantityMin = 1
	QuantityMax = 400
)
