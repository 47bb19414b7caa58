package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Engine identifies the document store selected by a connection string.
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineMongo    Engine = "mongodb"
	EngineMemory   Engine = "memory"

	// PostgresAdapterPGX, PostgresAdapterSQL and PostgresAdapterSQLX select the PostgreSQL driver adapter.
	PostgresAdapterPGX  = "pgx"
	PostgresAdapterSQL  = "sql"
	PostgresAdapterSQLX = "sqlx"

	defaultMongoDatabase = "test"
)

var (
	// ErrEmptyDatabaseURL is returned when no connection string was configured.
	ErrEmptyDatabaseURL = errors.New("database url must not be empty")

	// ErrUnsupportedDatabaseURL is returned for connection strings with an unknown scheme.
	ErrUnsupportedDatabaseURL = errors.New("unsupported database url scheme")

	// ErrUnsupportedPostgresAdapter is returned for an unknown PostgreSQL adapter name.
	ErrUnsupportedPostgresAdapter = errors.New("unsupported postgres adapter")
)

// Target is a parsed connection string.
type Target struct {
	Engine   Engine
	URL      string
	Database string
}

// ParseDatabaseURL selects the engine from the URL scheme.
// For MongoDB the database name is taken from the URL path and defaults to "test".
func ParseDatabaseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrEmptyDatabaseURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Target{}, errors.Join(ErrUnsupportedDatabaseURL, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql":
		return Target{Engine: EnginePostgres, URL: raw, Database: strings.TrimPrefix(parsed.Path, "/")}, nil

	case "mongodb", "mongodb+srv":
		database := strings.TrimPrefix(parsed.Path, "/")
		if database == "" {
			database = defaultMongoDatabase
		}
		return Target{Engine: EngineMongo, URL: raw, Database: database}, nil

	case "memory":
		return Target{Engine: EngineMemory, URL: raw, Database: parsed.Host}, nil

	default:
		return Target{}, errors.Join(ErrUnsupportedDatabaseURL, fmt.Errorf("%q", parsed.Scheme))
	}
}

// Redacted returns the connection string with the password masked, suitable for logs.
func (t Target) Redacted() string {
	parsed, err := url.Parse(t.URL)
	if err != nil {
		return string(t.Engine) + "://"
	}

	return parsed.Redacted()
}

// NormalizePostgresAdapter validates the adapter name, defaulting to pgx.
func NormalizePostgresAdapter(adapter string) (string, error) {
	switch a := strings.ToLower(strings.TrimSpace(adapter)); a {
	case "", PostgresAdapterPGX:
		return PostgresAdapterPGX, nil
	case PostgresAdapterSQL, PostgresAdapterSQLX:
		return a, nil
	default:
		return "", errors.Join(ErrUnsupportedPostgresAdapter, fmt.Errorf("%q", adapter))
	}
}
