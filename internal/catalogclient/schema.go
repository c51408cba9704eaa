package catalogclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// catalogDoc — OpenAPI-описание удалённого каталога.
//
//go:embed catalog.yaml
var catalogDoc []byte

// recordSchemaName — схема одной записи в components.schemas.
const recordSchemaName = "PaintRecord"

// loadRecordSchema загружает и валидирует встроенный OpenAPI-документ
// и возвращает схему записи каталога.
func loadRecordSchema() (*openapi3.Schema, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(catalogDoc)
	if err != nil {
		return nil, fmt.Errorf("загрузка OpenAPI-схемы каталога: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI-схемы каталога: %w", err)
	}

	ref, ok := doc.Components.Schemas[recordSchemaName]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("схема %s не найдена в OpenAPI-документе", recordSchemaName)
	}
	return ref.Value, nil
}

// checkRecordShape проверяет сырой JSON одной записи по схеме PaintRecord.
func checkRecordShape(schema *openapi3.Schema, raw json.RawMessage) error {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return err
	}
	return schema.VisitJSON(value)
}
