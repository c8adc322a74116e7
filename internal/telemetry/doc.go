// Package telemetry provides OpenTelemetry initialization and helpers
// for distributed tracing across the SocialChef Sous service.
//
// The package configures OTLP HTTP export for traces, logs and metrics, with
// support for Grafana Cloud and local Tempo backends.
package telemetry
