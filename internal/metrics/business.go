package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("socialchef/business")

	// Generation metrics
	RecipeGenerationsTotal   metric.Int64Counter
	RecipeGenerationDuration metric.Float64Histogram
	GenerationAuditFailures  metric.Int64Counter

	// External API metrics
	ExternalAPICallsTotal metric.Int64Counter
	ExternalAPIDuration   metric.Float64Histogram
)

func Init() error {
	var err error

	RecipeGenerationsTotal, err = meter.Int64Counter(
		"recipe.generations.total",
		metric.WithDescription("Total number of AI recipe generations by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	RecipeGenerationDuration, err = meter.Float64Histogram(
		"recipe.generation.duration",
		metric.WithDescription("Duration of AI recipe generation, inference plus persistence"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	GenerationAuditFailures, err = meter.Int64Counter(
		"recipe.generation.audit_failures.total",
		metric.WithDescription("Error records that could not be written"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordExternalCall records one outbound provider call. Safe before Init.
func RecordExternalCall(ctx context.Context, provider, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	)
	if ExternalAPICallsTotal != nil {
		ExternalAPICallsTotal.Add(ctx, 1, attrs)
	}
	if ExternalAPIDuration != nil {
		ExternalAPIDuration.Record(ctx, seconds, attrs)
	}
}

// RecordGeneration records one orchestrated generation. errorCode is empty on success.
func RecordGeneration(ctx context.Context, errorCode string, seconds float64) {
	outcome := "success"
	if errorCode != "" {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("error_code", errorCode),
	)
	if RecipeGenerationsTotal != nil {
		RecipeGenerationsTotal.Add(ctx, 1, attrs)
	}
	if RecipeGenerationDuration != nil {
		RecipeGenerationDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// RecordAuditFailure counts an error record that was dropped.
func RecordAuditFailure(ctx context.Context, errorCode string) {
	if GenerationAuditFailures != nil {
		GenerationAuditFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("error_code", errorCode)))
	}
}
