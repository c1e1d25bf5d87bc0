package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"standardizer/internal/domain"
)

const (
	// keepAliveContent — минимальный динамический сегмент для
	// прогрева кэша без полезной работы.
	keepAliveContent = "Тестовый товар"

	keepAliveMaxTokens = 10
)

// Gateway собирает запросы к AI API и разбирает ответы.
type Gateway struct {
	transport Transport
	logger    *slog.Logger
}

// NewGateway создаёт Gateway поверх транспорта.
func NewGateway(transport Transport, logger *slog.Logger) *Gateway {
	return &Gateway{transport: transport, logger: logger}
}

// Wire-формат динамического сегмента.
type wireProduct struct {
	ProductID  string          `json:"product_id"`
	Title      string          `json:"title"`
	OKPD2Code  string          `json:"okpd2_code"`
	Attributes []wireAttribute `json:"attributes"`
}

type wireAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StandardizeGroup отправляет одну группу товаров на стандартизацию.
//
// cached — отрендеренный кэшируемый сегмент группы. В динамический
// сегмент сериализуется полный список атрибутов каждого товара, без
// усечения. Ошибки транспорта и разбора возвращаются как типизированные
// (ErrTransport / ErrParse); повторов нет.
func (g *Gateway) StandardizeGroup(
	ctx context.Context,
	cached string,
	products []domain.ProductForStandardization,
) (map[string][]domain.StandardizedAttribute, error) {
	if len(products) == 0 {
		return map[string][]domain.StandardizedAttribute{}, nil
	}

	dynamic, err := buildDynamicSegment(products)
	if err != nil {
		return nil, err
	}

	raw, err := g.transport.Send(ctx, cached, dynamic, 0)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(raw)
}

// KeepAlive отправляет минимальный запрос с одним кэшируемым
// сегментом — прогрев кэша на стороне API.
func (g *Gateway) KeepAlive(ctx context.Context, cached string) error {
	_, err := g.transport.Send(ctx, cached, keepAliveContent, keepAliveMaxTokens)
	return err
}

// buildDynamicSegment сериализует товары батча.
func buildDynamicSegment(products []domain.ProductForStandardization) (string, error) {
	wire := make([]wireProduct, len(products))
	for i, p := range products {
		attrs := make([]wireAttribute, len(p.Attributes))
		for j, a := range p.Attributes {
			attrs[j] = wireAttribute{Name: a.Name, Value: a.Value}
		}
		wire[i] = wireProduct{
			ProductID:  p.ID,
			Title:      p.Title,
			OKPD2Code:  p.OKPD2Code,
			Attributes: attrs,
		}
	}

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal products: %w", err)
	}

	return "\nТОВАРЫ ДЛЯ СТАНДАРТИЗАЦИИ:\n" + string(data), nil
}

// Wire-формат ответа модели.
type wireResult struct {
	ProductID  string            `json:"product_id"`
	Attributes []json.RawMessage `json:"standardized_attributes"`
}

type wireStandardized struct {
	StandardName       string  `json:"standard_name"`
	StandardValue      string  `json:"standard_value"`
	Unit               *string `json:"unit"`
	CharacteristicType string  `json:"characteristic_type"`
	OriginalName       string  `json:"original_name"`
	OriginalValue      string  `json:"original_value"`
}

// parseResponse извлекает результаты из сырого ответа модели.
//
// Модель может окружать JSON комментарием — берётся подстрока от
// первой '[' до последней ']'. Элементы без product_id отбрасываются;
// неразборчивые атрибуты пропускаются поштучно (частичный результат
// лучше полного отказа).
func (g *Gateway) parseResponse(raw string) (map[string][]domain.StandardizedAttribute, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		g.logger.Error("no JSON array in oracle response", "response", truncate(raw, 500))
		return nil, fmt.Errorf("%w: no JSON array in response", ErrParse)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw[start:end+1]), &elements); err != nil {
		g.logger.Error("failed to decode oracle response array",
			"error", err,
			"response", truncate(raw, 500),
		)
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	results := make(map[string][]domain.StandardizedAttribute, len(elements))

	for _, element := range elements {
		var res wireResult
		if err := json.Unmarshal(element, &res); err != nil {
			g.logger.Warn("skipping malformed result element", "error", err)
			continue
		}
		if res.ProductID == "" {
			continue
		}

		attrs := make([]domain.StandardizedAttribute, 0, len(res.Attributes))
		for _, rawAttr := range res.Attributes {
			var wa wireStandardized
			if err := json.Unmarshal(rawAttr, &wa); err != nil {
				g.logger.Warn("skipping malformed attribute",
					"product_id", res.ProductID,
					"error", err,
				)
				continue
			}

			attr := domain.StandardizedAttribute{
				StandardName:       wa.StandardName,
				StandardValue:      wa.StandardValue,
				CharacteristicType: wa.CharacteristicType,
				OriginalName:       wa.OriginalName,
				OriginalValue:      wa.OriginalValue,
			}
			if wa.Unit != nil {
				attr.Unit = *wa.Unit
			}
			attrs = append(attrs, attr)
		}

		results[res.ProductID] = attrs
	}

	return results, nil
}
