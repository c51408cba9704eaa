// export.go — выгрузка кэша каталога в CSV.
package service

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
)

// csvHeader — заголовок файла экспорта.
var csvHeader = []string{"ID", "Marca", "Precio", "Color", "Cantidad"}

// WriteCSV записывает записи в формате CSV (RFC 4180, разделитель — запятая).
// Марка всегда в кавычках; остальные поля — только если содержат
// разделитель, кавычку или перевод строки.
func WriteCSV(w io.Writer, records []model.PaintRecord) error {
	bw := bufio.NewWriter(w)

	writeRow(bw, csvHeader, nil)
	for _, r := range records {
		writeRow(bw, []string{
			r.ID,
			r.Brand,
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			r.Color,
			strconv.Itoa(r.Quantity),
		}, alwaysQuoted)
	}
	return bw.Flush()
}

// alwaysQuoted — номера колонок с текстом, которые всегда берутся в кавычки.
var alwaysQuoted = map[int]bool{1: true}

func writeRow(bw *bufio.Writer, fields []string, quoted map[int]bool) {
	for i, f := range fields {
		if i > 0 {
			_ = bw.WriteByte(',')
		}
		if quoted[i] || needsQuotes(f) {
			_ = bw.WriteByte('"')
			_, _ = bw.WriteString(strings.ReplaceAll(f, `"`, `""`))
			_ = bw.WriteByte('"')
			continue
		}
		_, _ = bw.WriteString(f)
	}
	_ = bw.WriteByte('\n')
}

// needsQuotes — поле нельзя записать без кавычек.
func needsQuotes(f string) bool {
	if f == "" {
		return false
	}
	if f[0] == ' ' || f[0] == '\t' {
		return true
	}
	return strings.ContainsAny(f, ",\"\r\n")
}

// ExportFilename возвращает имя файла экспорта с отметкой времени.
func ExportFilename(now time.Time) string {
	return "pinturas_" + now.Format("20060102-150405") + ".csv"
}
