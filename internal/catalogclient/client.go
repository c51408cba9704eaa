// Пакет catalogclient — HTTP-клиент удалённого каталога красок
// (REST-коллекция pinturas). Поддерживает TLS с кастомным CA
// (PC_CATALOG_CA_CERT_PATH), ограничивает каждый запрос таймаутом
// и сводит ошибки транспорта и протокола к *Error с категорией Kind.
//
// Ответы сервера приходят в нескольких формах (голый массив или объект,
// обёртки records/pinturas и record/pintura); все они приводятся
// к одной модели model.PaintRecord. Каждая запись проверяется по
// встроенной OpenAPI-схеме до декодирования.
package catalogclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
)

// Операции клиента (метки метрик и поле Error.Op).
const (
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
	opPing   = "ping"
)

const (
	// maxBodySize — предельный размер тела ответа.
	maxBodySize = 4 << 20
	// maxDetailLen — сколько байт тела ошибки сохраняется в Error.Detail.
	maxDetailLen = 256
)

// Ключи обёрток ответа.
var (
	listEnvelopeKeys   = []string{"records", "pinturas"}
	recordEnvelopeKeys = []string{"record", "pintura"}
	successKeys        = []string{"success", "exito"}
)

// wireRecord — запись каталога в формате удалённого API.
type wireRecord struct {
	ID       json.RawMessage `json:"id"`
	Brand    string          `json:"marca"`
	Price    float64         `json:"precio"`
	Color    string          `json:"color"`
	Quantity float64         `json:"cantidad"`
}

// wireInput — тело POST/PUT. ID передаётся только в пути.
type wireInput struct {
	Brand    string  `json:"marca"`
	Price    float64 `json:"precio"`
	Color    string  `json:"color"`
	Quantity int     `json:"cantidad"`
}

// Client — HTTP-клиент удалённого каталога.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	schema     *openapi3.Schema
	logger     *slog.Logger
}

// New создаёт клиент каталога.
// baseURL — URL коллекции (например, https://host/pinturas).
// timeout — таймаут одного запроса (PC_CATALOG_TIMEOUT).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
func New(baseURL string, timeout time.Duration, caCertPath string, logger *slog.Logger) (*Client, error) {
	schema, err := loadRecordSchema()
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
	}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата каталога: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
		logger.Info("CA-сертификат каталога добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		baseURL: normalizeURL(baseURL),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		schema: schema,
		logger: logger.With(slog.String("component", "catalog_client")),
	}, nil
}

// BaseURL возвращает URL коллекции.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List возвращает все записи каталога.
// Формат запроса: GET {baseURL}
func (c *Client) List(ctx context.Context) (records []model.PaintRecord, err error) {
	defer observe(opList, time.Now(), &err)

	body, err := c.do(ctx, opList, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeList(body)
}

// Get возвращает запись по ID.
// Формат запроса: GET {baseURL}/{id}
func (c *Client) Get(ctx context.Context, id string) (rec model.PaintRecord, err error) {
	defer observe(opGet, time.Now(), &err)

	itemURL, err := c.itemURL(opGet, id)
	if err != nil {
		return model.PaintRecord{}, err
	}

	body, err := c.do(ctx, opGet, http.MethodGet, itemURL, nil)
	if err != nil {
		return model.PaintRecord{}, err
	}

	raw, err := unwrapRecord(body)
	if err != nil {
		return model.PaintRecord{}, protocolError(opGet, "разбор ответа", err)
	}
	rec, err = c.decodeRecord(raw)
	if err != nil {
		return model.PaintRecord{}, protocolError(opGet, "разбор записи", err)
	}
	return rec, nil
}

// Create создаёт запись. ID в rec игнорируется — его назначает сервер.
// Возвращает созданную запись, если сервер её вернул, иначе nil.
// Формат запроса: POST {baseURL}
func (c *Client) Create(ctx context.Context, rec model.PaintRecord) (created *model.PaintRecord, err error) {
	defer observe(opCreate, time.Now(), &err)

	body, err := c.do(ctx, opCreate, http.MethodPost, c.baseURL, toWire(rec))
	if err != nil {
		return nil, err
	}
	return c.decodeAck(opCreate, body)
}

// Update полностью заменяет поля записи с указанным ID.
// Возвращает обновлённую запись, если сервер её вернул, иначе nil.
// Формат запроса: PUT {baseURL}/{id}
func (c *Client) Update(ctx context.Context, id string, rec model.PaintRecord) (updated *model.PaintRecord, err error) {
	defer observe(opUpdate, time.Now(), &err)

	itemURL, err := c.itemURL(opUpdate, id)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, opUpdate, http.MethodPut, itemURL, toWire(rec))
	if err != nil {
		return nil, err
	}
	return c.decodeAck(opUpdate, body)
}

// Delete удаляет запись. Повторное удаление возвращает ErrNotFound.
// Формат запроса: DELETE {baseURL}/{id}
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	defer observe(opDelete, time.Now(), &err)

	itemURL, err := c.itemURL(opDelete, id)
	if err != nil {
		return err
	}

	_, err = c.do(ctx, opDelete, http.MethodDelete, itemURL, nil)
	return err
}

// Ping проверяет доступность каталога запросом к коллекции.
func (c *Client) Ping(ctx context.Context) (err error) {
	defer observe(opPing, time.Now(), &err)

	_, err = c.do(ctx, opPing, http.MethodGet, c.baseURL, nil)
	return err
}

// --- Readiness checker ---

// CheckReady проверяет доступность каталога запросом к коллекции.
// Реализует handlers.ReadinessChecker: сеть, таймаут и 5xx — fail,
// прочие HTTP-ошибки — degraded.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	err := c.Ping(ctx)
	switch {
	case err == nil:
		return "ok", "Каталог доступен"
	case HTTPStatus(err) >= 400 && HTTPStatus(err) < 500:
		return "degraded", fmt.Sprintf("Каталог отвечает с ошибкой: %v", err)
	default:
		return "fail", fmt.Sprintf("Каталог недоступен: %v", err)
	}
}

// do выполняет запрос с таймаутом и возвращает тело успешного ответа.
func (c *Client) do(ctx context.Context, op, method, reqURL string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса %s: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		cerr := transportError(op, err)
		c.logger.Warn("Каталог недоступен",
			slog.String("operation", op),
			slog.String("url", reqURL),
			slog.String("kind", string(cerr.Kind)),
			slog.String("error", err.Error()),
		)
		return nil, cerr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, transportError(op, err)
	}
	if len(body) > maxBodySize {
		return nil, protocolError(op, fmt.Sprintf("тело ответа превышает %d байт", maxBodySize), nil)
	}

	c.logger.Debug("Ответ каталога",
		slog.String("operation", op),
		slog.String("method", method),
		slog.String("url", reqURL),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cerr := statusError(op, resp.StatusCode, truncate(body))
		c.logger.Warn("Каталог вернул ошибку",
			slog.String("operation", op),
			slog.Int("status", resp.StatusCode),
			slog.String("kind", string(cerr.Kind)),
		)
		return nil, cerr
	}

	return body, nil
}

// itemURL строит URL записи. Пустой ID не может существовать на сервере.
func (c *Client) itemURL(op, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", &Error{Kind: KindNotFound, Op: op, Detail: "пустой идентификатор записи"}
	}
	return c.baseURL + "/" + url.PathEscape(id), nil
}

// decodeList разбирает список: голый массив или объект с ключом records/pinturas.
func (c *Client) decodeList(body []byte) ([]model.PaintRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, protocolError(opList, "пустой ответ", nil)
	}

	var items []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, protocolError(opList, "разбор массива", err)
		}
	case '{':
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, protocolError(opList, "разбор объекта", err)
		}
		found := false
		for _, key := range listEnvelopeKeys {
			raw, ok := env[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, protocolError(opList, "поле "+key+" не является массивом", err)
			}
			found = true
			break
		}
		if !found {
			return nil, protocolError(opList, "в ответе нет списка записей", nil)
		}
	default:
		return nil, protocolError(opList, "ответ не является JSON-массивом или объектом", nil)
	}

	records := make([]model.PaintRecord, 0, len(items))
	for i, raw := range items {
		rec, err := c.decodeRecord(raw)
		if err != nil {
			return nil, protocolError(opList, fmt.Sprintf("запись #%d", i), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeAck разбирает ответ на create/update.
// Пустое тело или подтверждение без записи — успех без записи (nil).
func (c *Client) decodeAck(op string, body []byte) (*model.PaintRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, protocolError(op, "ответ не является JSON", nil)
	}
	if trimmed[0] != '{' {
		return nil, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, protocolError(op, "разбор объекта", err)
	}
	if reportsFailure(env) {
		return nil, protocolError(op, "сервер не подтвердил операцию", nil)
	}

	for _, key := range recordEnvelopeKeys {
		if raw, ok := env[key]; ok && isObject(raw) {
			rec, err := c.decodeRecord(raw)
			if err != nil {
				return nil, protocolError(op, "разбор записи", err)
			}
			return &rec, nil
		}
	}

	// Голая запись или подтверждение вида {"message": "..."}
	if rec, err := c.decodeRecord(trimmed); err == nil {
		return &rec, nil
	}
	return nil, nil
}

// decodeRecord проверяет запись по схеме и приводит её к модели.
func (c *Client) decodeRecord(raw json.RawMessage) (model.PaintRecord, error) {
	if err := checkRecordShape(c.schema, raw); err != nil {
		return model.PaintRecord{}, err
	}

	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.PaintRecord{}, err
	}

	id := parseID(w.ID)
	if id == "" {
		return model.PaintRecord{}, fmt.Errorf("пустой идентификатор записи")
	}

	return model.PaintRecord{
		ID:       id,
		Brand:    w.Brand,
		Price:    w.Price,
		Color:    w.Color,
		Quantity: int(w.Quantity),
	}, nil
}

// unwrapRecord извлекает запись из ответа на get: {success, record},
// {exito, pintura} или голый объект.
func unwrapRecord(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("ответ не является JSON-объектом")
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if reportsFailure(env) {
		return nil, fmt.Errorf("сервер сообщил о неуспешном запросе")
	}

	for _, key := range recordEnvelopeKeys {
		if raw, ok := env[key]; ok && isObject(raw) {
			return raw, nil
		}
	}
	return trimmed, nil
}

// reportsFailure — в обёртке явно указано success/exito = false.
func reportsFailure(env map[string]json.RawMessage) bool {
	for _, key := range successKeys {
		if raw, ok := env[key]; ok && string(bytes.TrimSpace(raw)) == "false" {
			return true
		}
	}
	return false
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// parseID приводит ID (строка или число в JSON) к строке.
func parseID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func toWire(rec model.PaintRecord) wireInput {
	return wireInput{
		Brand:    rec.Brand,
		Price:    rec.Price,
		Color:    rec.Color,
		Quantity: rec.Quantity,
	}
}

// observe записывает метрики завершённой операции.
func observe(op string, start time.Time, errp *error) {
	requestsTotal.WithLabelValues(op, outcomeOf(*errp)).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// truncate обрезает тело ответа для Error.Detail.
func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetailLen {
		s = s[:maxDetailLen] + "..."
	}
	return s
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("CA-сертификат %s не содержит PEM-блоков", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
