// Package config provides database and observability configuration for the sanitize tool and its integration tests.
//
// It contains factory functions for the supported document stores (PostgreSQL via pgx.Pool, sql.DB or sqlx.DB,
// MongoDB) with pre-tuned connection pools, parsing of the single connection string that selects the engine,
// and OpenTelemetry provider setup exporting via OTLP/gRPC.
package config
