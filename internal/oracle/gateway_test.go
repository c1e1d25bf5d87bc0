package oracle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"standardizer/internal/domain"
)

// fakeTransport возвращает заранее заданный ответ или ошибку.
type fakeTransport struct {
	response string
	err      error

	lastCached  string
	lastDynamic string
	lastTokens  int
	calls       int
}

func (f *fakeTransport) Send(_ context.Context, cached, dynamic string, maxTokens int) (string, error) {
	f.calls++
	f.lastCached = cached
	f.lastDynamic = dynamic
	f.lastTokens = maxTokens
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testProducts() []domain.ProductForStandardization {
	return []domain.ProductForStandardization{
		{
			ID:        "p1",
			Title:     "Ноутбук",
			OKPD2Code: "262011110",
			Attributes: []domain.ProductAttribute{
				{Name: "Процессор", Value: "Intel Core i5"},
				{Name: "Цвет", Value: "черный"},
			},
		},
	}
}

func TestStandardizeGroup_Success(t *testing.T) {
	transport := &fakeTransport{
		response: `Вот результат:
[
  {
    "product_id": "p1",
    "standardized_attributes": [
      {
        "standard_name": "Процессор",
        "standard_value": "Intel Core i5",
        "unit": null,
        "characteristic_type": "processor"
      }
    ]
  }
]
Конец.`,
	}
	g := NewGateway(transport, slog.Default())

	results, err := g.StandardizeGroup(context.Background(), "cached-segment", testProducts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attrs, ok := results["p1"]
	if !ok {
		t.Fatal("expected result for p1")
	}
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if attrs[0].StandardName != "Процессор" || attrs[0].CharacteristicType != "processor" {
		t.Errorf("unexpected attribute: %+v", attrs[0])
	}
	if attrs[0].Unit != "" {
		t.Errorf("null unit should map to empty string, got %q", attrs[0].Unit)
	}

	if transport.lastCached != "cached-segment" {
		t.Errorf("cached segment not passed through: %q", transport.lastCached)
	}
	// Динамический сегмент содержит полный список атрибутов.
	for _, substr := range []string{"p1", "Ноутбук", "262011110", "Процессор", "Цвет", "черный"} {
		if !strings.Contains(transport.lastDynamic, substr) {
			t.Errorf("dynamic segment missing %q", substr)
		}
	}
}

func TestStandardizeGroup_TransportError(t *testing.T) {
	wantErr := errors.New("boom")
	g := NewGateway(&fakeTransport{err: wantErr}, slog.Default())

	_, err := g.StandardizeGroup(context.Background(), "cached", testProducts())
	if !errors.Is(err, wantErr) {
		t.Fatalf("transport error should propagate, got %v", err)
	}
}

func TestStandardizeGroup_NoArray(t *testing.T) {
	g := NewGateway(&fakeTransport{response: "Извините, не могу обработать запрос."}, slog.Default())

	_, err := g.StandardizeGroup(context.Background(), "cached", testProducts())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestStandardizeGroup_EmptyInput(t *testing.T) {
	transport := &fakeTransport{}
	g := NewGateway(transport, slog.Default())

	results, err := g.StandardizeGroup(context.Background(), "cached", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
	if transport.calls != 0 {
		t.Error("empty input must not reach the transport")
	}
}

func TestParseResponse_DropsElementsWithoutProductID(t *testing.T) {
	g := NewGateway(nil, slog.Default())

	results, err := g.parseResponse(`[
		{"standardized_attributes": [{"standard_name": "X", "standard_value": "1", "characteristic_type": "x"}]},
		{"product_id": "p2", "standardized_attributes": []}
	]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if _, ok := results["p2"]; !ok {
		t.Error("p2 should be present with empty attributes")
	}
}

func TestParseResponse_SkipsMalformedAttributes(t *testing.T) {
	g := NewGateway(nil, slog.Default())

	results, err := g.parseResponse(`[
		{"product_id": "p1", "standardized_attributes": [
			{"standard_name": "Вес", "standard_value": "500", "unit": "г", "characteristic_type": "weight"},
			"не объект",
			{"standard_name": "Цвет", "standard_value": "черный", "characteristic_type": "color"}
		]}
	]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attrs := results["p1"]
	if len(attrs) != 2 {
		t.Fatalf("expected 2 parsed attributes, got %d", len(attrs))
	}
	if attrs[0].Unit != "г" {
		t.Errorf("expected unit г, got %q", attrs[0].Unit)
	}
}

func TestKeepAlive(t *testing.T) {
	transport := &fakeTransport{response: "ok"}
	g := NewGateway(transport, slog.Default())

	if err := g.KeepAlive(context.Background(), "cached-segment"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transport.lastCached != "cached-segment" {
		t.Error("keep-alive must carry the cached segment")
	}
	if transport.lastTokens != keepAliveMaxTokens {
		t.Errorf("keep-alive should request %d tokens, got %d", keepAliveMaxTokens, transport.lastTokens)
	}
}
