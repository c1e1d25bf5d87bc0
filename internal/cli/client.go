package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// GroupCount — количество товаров одного кода или класса ОКПД2.
type GroupCount struct {
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// QueueStats — статистика очереди стандартизации.
type QueueStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByClass  []GroupCount     `json:"by_class"`
}

// StandardizedStats — статистика стандартизированной БД.
type StandardizedStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// StatsResponse — сводная статистика из API.
type StatsResponse struct {
	Queue        *QueueStats        `json:"queue"`
	Standardized *StandardizedStats `json:"standardized"`
}

// ResetStuckResponse — результат сброса застрявших товаров.
type ResetStuckResponse struct {
	Reset int64 `json:"reset"`
}

// StandardizedRecord — запись стандартизированной БД в ответе поиска.
type StandardizedRecord struct {
	OldMongoID             string `json:"old_mongo_id"`
	CollectionName         string `json:"collection_name"`
	Title                  string `json:"title"`
	OKPD2Code              string `json:"okpd2_code"`
	StandardizedAttributes []struct {
		StandardName  string `json:"standard_name"`
		StandardValue string `json:"standard_value"`
	} `json:"standardized_attributes"`
}

// FindProductsResponse — результат поиска по атрибуту.
type FindProductsResponse struct {
	Products []StandardizedRecord `json:"products"`
	Count    int                  `json:"count"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client — HTTP-клиент для standardizer API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. Пустой apiKey — без аутентификации.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Stats возвращает статистику обеих БД.
func (c *Client) Stats() (*StatsResponse, error) {
	var stats StatsResponse
	err := c.doData(http.MethodGet, "/api/v1/standardization/stats", nil, &stats)
	return &stats, err
}

// ResetStuck сбрасывает застрявшие товары. olderThan — строка в
// формате time.ParseDuration или пустая (порог по умолчанию).
func (c *Client) ResetStuck(olderThan string) (*ResetStuckResponse, error) {
	var body any
	if olderThan != "" {
		body = map[string]string{"older_than": olderThan}
	}

	var result ResetStuckResponse
	err := c.doData(http.MethodPost, "/api/v1/standardization/reset-stuck", body, &result)
	return &result, err
}

// FindProducts ищет стандартизированные товары по имени (и значению)
// стандартизированного атрибута.
func (c *Client) FindProducts(name, value string, limit int) (*FindProductsResponse, error) {
	q := url.Values{}
	q.Set("standard_name", name)
	if value != "" {
		q.Set("standard_value", value)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var result FindProductsResponse
	err := c.doData(http.MethodGet, "/api/v1/standardization/products?"+q.Encode(), nil, &result)
	return &result, err
}

// --- HTTP helpers ---

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
