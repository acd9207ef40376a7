package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // for sqlserver
	_ "github.com/go-sql-driver/mysql"   // for mysql
	_ "github.com/lib/pq"                // for postgres

	"api-testgen/internal/types"
)

// DBConfig holds database connection configuration
type DBConfig struct {
	Type     string `yaml:"type"` // postgres | mysql | sqlserver
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SQLStore persists test cases in a relational database. The full test case
// is stored as a JSON payload next to a few queryable columns.
type SQLStore struct {
	config DBConfig
	db     *sql.DB
}

// NewSQLStore connects to the configured database and ensures the schema
func NewSQLStore(config DBConfig) (*SQLStore, error) {
	s := &SQLStore{config: config}
	if err := s.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := s.ensureSchema(); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return s, nil
}

// newSQLStoreWithDB wires an existing handle; used by tests with sqlmock
func newSQLStoreWithDB(config DBConfig, db *sql.DB) *SQLStore {
	return &SQLStore{config: config, db: db}
}

// connect establishes database connection
func (s *SQLStore) connect() error {
	var dsn string
	switch s.config.Type {
	case "postgres":
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			s.config.Host, s.config.Port, s.config.User, s.config.Password, s.config.Database)
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			s.config.User, s.config.Password, s.config.Host, s.config.Port, s.config.Database)
	case "sqlserver":
		dsn = fmt.Sprintf("server=%s;port=%d;user id=%s;password=%s;database=%s",
			s.config.Host, s.config.Port, s.config.User, s.config.Password, s.config.Database)
	default:
		return fmt.Errorf("unsupported database type: %s", s.config.Type)
	}

	db, err := sql.Open(s.config.Type, dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}

	s.db = db
	return nil
}

// ensureSchema creates the test_cases table when it does not exist yet
func (s *SQLStore) ensureSchema() error {
	var ddl string
	switch s.config.Type {
	case "sqlserver":
		ddl = `IF OBJECT_ID('test_cases', 'U') IS NULL
CREATE TABLE test_cases (
	id VARCHAR(36) PRIMARY KEY,
	spec_id BIGINT NOT NULL,
	source_endpoint_id BIGINT NOT NULL,
	name NVARCHAR(512) NOT NULL,
	test_type VARCHAR(16) NOT NULL,
	method VARCHAR(10) NOT NULL,
	path NVARCHAR(1024) NOT NULL,
	payload NVARCHAR(MAX) NOT NULL,
	created_at DATETIME2 NOT NULL
)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS test_cases (
	id VARCHAR(36) PRIMARY KEY,
	spec_id BIGINT NOT NULL,
	source_endpoint_id BIGINT NOT NULL,
	name VARCHAR(512) NOT NULL,
	test_type VARCHAR(16) NOT NULL,
	method VARCHAR(10) NOT NULL,
	path VARCHAR(1024) NOT NULL,
	payload TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`
	}
	_, err := s.db.Exec(ddl)
	return err
}

// placeholder renders the n-th bind parameter for the configured driver
func (s *SQLStore) placeholder(n int) string {
	switch s.config.Type {
	case "postgres":
		return fmt.Sprintf("$%d", n)
	case "sqlserver":
		return fmt.Sprintf("@p%d", n)
	default:
		return "?"
	}
}

// SaveTestCase implements the Store interface
func (s *SQLStore) SaveTestCase(ctx context.Context, test *types.TestCase) error {
	payload, err := json.Marshal(test)
	if err != nil {
		return fmt.Errorf("failed to marshal test case: %w", err)
	}

	query := fmt.Sprintf(
		"INSERT INTO test_cases (id, spec_id, source_endpoint_id, name, test_type, method, path, payload, created_at) VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)",
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4),
		s.placeholder(5), s.placeholder(6), s.placeholder(7), s.placeholder(8), s.placeholder(9),
	)
	_, err = s.db.ExecContext(ctx, query,
		test.ID, test.SpecID, test.SourceEndpointID, test.Name,
		test.TestType, test.Method, test.Path, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert test case %q: %w", test.Name, err)
	}
	return nil
}

// ListTestCases implements the Store interface
func (s *SQLStore) ListTestCases(ctx context.Context, specID int64) ([]types.TestCase, error) {
	query := fmt.Sprintf("SELECT payload FROM test_cases WHERE spec_id = %s ORDER BY created_at", s.placeholder(1))
	rows, err := s.db.QueryContext(ctx, query, specID)
	if err != nil {
		return nil, fmt.Errorf("failed to query test cases: %w", err)
	}
	defer rows.Close()

	var tests []types.TestCase
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan test case row: %w", err)
		}
		var test types.TestCase
		if err := json.Unmarshal([]byte(payload), &test); err != nil {
			return nil, fmt.Errorf("failed to parse test case payload: %w", err)
		}
		tests = append(tests, test)
	}
	return tests, rows.Err()
}

// Close implements the Store interface
func (s *SQLStore) Close() error {
	return s.db.Close()
}
