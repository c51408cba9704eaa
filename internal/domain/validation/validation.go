// Пакет validation — проверка и нормализация пользовательского ввода
// перед созданием или изменением записи каталога.
//
// Все четыре правила проверяются независимо: нарушения не прерывают
// проверку и возвращаются вместе, по одному на поле.
package validation

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
)

// Имена полей в Violations.
const (
	FieldBrand    = "brand"
	FieldPrice    = "price"
	FieldColor    = "color"
	FieldQuantity = "quantity"
)

// Машиночитаемые коды нарушений. UI переводит их через i18n-ключи
// вида "validation.<code>".
const (
	CodeBrandRequired      = "brand_required"
	CodeBrandTooShort      = "brand_too_short"
	CodeBrandTooLong       = "brand_too_long"
	CodeBrandInvalidChars  = "brand_invalid_chars"
	CodePriceNotNumeric    = "price_not_numeric"
	CodePriceTooLow        = "price_too_low"
	CodePriceTooHigh       = "price_too_high"
	CodeColorInvalid       = "color_invalid"
	CodeQuantityNotNumeric = "quantity_not_numeric"
	CodeQuantityNotInteger = "quantity_not_integer"
	CodeQuantityTooLow     = "quantity_too_low"
	CodeQuantityTooHigh    = "quantity_too_high"
)

var (
	// brandPattern — буквы (включая испанские с диакритикой), цифры, пробелы, дефис, точка.
	brandPattern = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ0-9\s\-.]+$`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	// numberPattern — десятичная запись числа, без hex-форм и разделителей
	numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// Violation — нарушение правила для одного поля.
type Violation struct {
	// Code — стабильный код нарушения (Code* константы)
	Code string
	// Message — описание на английском, используется при отсутствии перевода
	Message string
}

// Violations — нарушения по именам полей. Пустая карта означает валидный ввод.
type Violations map[string]Violation

// Valid возвращает true, если нарушений нет.
func (v Violations) Valid() bool {
	return len(v) == 0
}

// Fields возвращает имена полей с нарушениями в отсортированном порядке.
func (v Violations) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Validate проверяет все поля ввода и возвращает все найденные нарушения.
func Validate(in model.PaintInput) Violations {
	v := make(Violations)
	if viol, ok := CheckBrand(in.Brand); !ok {
		v[FieldBrand] = viol
	}
	if viol, ok := CheckPrice(in.Price); !ok {
		v[FieldPrice] = viol
	}
	if viol, ok := CheckColor(in.Color); !ok {
		v[FieldColor] = viol
	}
	if viol, ok := CheckQuantity(in.Quantity); !ok {
		v[FieldQuantity] = viol
	}
	return v
}

// Parse проверяет ввод и, если он валиден, возвращает нормализованную запись:
// марка без крайних пробелов, числа приведены к типам, цвет в верхнем регистре.
// Цвет не обрезается: пробелы вокруг него уже отклонены CheckColor.
// ID в результате всегда пустой — его назначает сервер.
func Parse(in model.PaintInput) (model.PaintRecord, Violations) {
	v := Validate(in)
	if !v.Valid() {
		return model.PaintRecord{}, v
	}

	// Ошибки разбора уже исключены Validate.
	price, _ := parseNumber(in.Price)
	qty, _ := parseNumber(in.Quantity)

	return model.PaintRecord{
		Brand:    strings.TrimSpace(in.Brand),
		Price:    price,
		Color:    strings.ToUpper(in.Color),
		Quantity: int(qty),
	}, v
}

// CheckBrand проверяет марку.
func CheckBrand(raw string) (Violation, bool) {
	brand := strings.TrimSpace(raw)
	if brand == "" {
		return Violation{CodeBrandRequired, "brand is required"}, false
	}

	n := utf8.RuneCountInString(brand)
	if n < model.BrandMinLen {
		return Violation{CodeBrandTooShort, "brand must be at least 2 characters"}, false
	}
	if n > model.BrandMaxLen {
		return Violation{CodeBrandTooLong, "brand must not exceed 50 characters"}, false
	}

	if !brandPattern.MatchString(brand) {
		return Violation{CodeBrandInvalidChars, "brand contains characters that are not allowed"}, false
	}
	return Violation{}, true
}

// CheckPrice проверяет цену: число в диапазоне [50, 500].
func CheckPrice(raw string) (Violation, bool) {
	price, ok := parseNumber(raw)
	if !ok {
		return Violation{CodePriceNotNumeric, "price must be a valid number"}, false
	}
	if price < model.PriceMin {
		return Violation{CodePriceTooLow, "minimum price is 50"}, false
	}
	if price > model.PriceMax {
		return Violation{CodePriceTooHigh, "maximum price is 500"}, false
	}
	return Violation{}, true
}

// CheckColor проверяет цвет в формате #RRGGBB. Значение проверяется как есть,
// без обрезки пробелов.
func CheckColor(raw string) (Violation, bool) {
	if !colorPattern.MatchString(raw) {
		return Violation{CodeColorInvalid, "color must be a hexadecimal code (#RRGGBB)"}, false
	}
	return Violation{}, true
}

// CheckQuantity проверяет количество: целое число в диапазоне [1, 400].
func CheckQuantity(raw string) (Violation, bool) {
	qty, ok := parseNumber(raw)
	if !ok {
		return Violation{CodeQuantityNotNumeric, "quantity must be a valid number"}, false
	}
	if qty != math.Trunc(qty) {
		return Violation{CodeQuantityNotInteger, "quantity must be a whole number"}, false
	}
	if qty < model.QuantityMin {
		return Violation{CodeQuantityTooLow, "minimum quantity is 1"}, false
	}
	if qty > model.QuantityMax {
		return Violation{CodeQuantityTooHigh, "maximum quantity is 400"}, false
	}
	return Violation{}, true
}

// parseNumber разбирает десятичное число. Пустая строка, hex-запись (0x1p6),
// NaN и бесконечности считаются нечисловыми значениями.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if !numberPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// InputFromRecord заполняет поля формы значениями существующей записи.
func InputFromRecord(rec model.PaintRecord) model.PaintInput {
	return model.PaintInput{
		Brand:    rec.Brand,
		Price:    strconv.FormatFloat(rec.Price, 'f', -1, 64),
		Color:    rec.Color,
		Quantity: strconv.Itoa(rec.Quantity),
	}
}
