package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitOTel поднимает MeterProvider с Prometheus-экспортёром и делает его глобальным.
// Счётчики middleware (otel.Meter) после этого видны на /metrics рядом с HTTP-метриками.
// Возвращает функцию остановки провайдера.
func InitOTel() (func(context.Context) error, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("otel prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}
