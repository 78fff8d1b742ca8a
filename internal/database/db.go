package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/jgoulah/solarbill/pkg/models"
	_ "modernc.org/sqlite"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// DB wraps a usage database laid out the way gridscraper writes it
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Open connects to an existing database without touching its schema
func Open(dbPath string) (*DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		kwh REAL NOT NULL,
		service TEXT NOT NULL,
		created_at TEXT NOT NULL,
		published INTEGER DEFAULT 0,
		UNIQUE(start_time, service)
	);
	CREATE INDEX IF NOT EXISTS idx_usage_service ON usage_data(service);
	CREATE INDEX IF NOT EXISTS idx_usage_start_time ON usage_data(start_time);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertUsage inserts a usage record, ignoring duplicates
func (db *DB) InsertUsage(data *models.UsageData) error {
	query := `
	INSERT OR IGNORE INTO usage_data (date, start_time, end_time, kwh, service, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	var startTimeStr, endTimeStr string
	if !data.StartTime.IsZero() {
		startTimeStr = data.StartTime.Format(timestampLayout)
	}
	if !data.EndTime.IsZero() {
		endTimeStr = data.EndTime.Format(timestampLayout)
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err := db.conn.Exec(query, data.Date.Format(dateLayout), startTimeStr, endTimeStr, data.KWh, data.Service, createdAt)
	if err != nil {
		return fmt.Errorf("inserting usage data: %w", err)
	}

	return nil
}

// ListHourlyUsage returns the hourly rows of a service as usage readings. Start times are
// stored as wall-clock time and are read in loc. Rows without a start time are daily totals
// and can't be billed by the hour, so they're skipped. The utility's cost isn't stored, so
// each reading's cost is its energy at rate dollars per kWh.
func (db *DB) ListHourlyUsage(service string, loc *time.Location, rate float64) (models.UsageMap, error) {
	query := `
	SELECT start_time, end_time, kwh
	FROM usage_data
	WHERE service = ? AND start_time IS NOT NULL AND start_time != ''
	ORDER BY start_time ASC
	`

	rows, err := db.conn.Query(query, service)
	if err != nil {
		return nil, fmt.Errorf("querying usage data: %w", err)
	}
	defer rows.Close()

	usage := make(models.UsageMap)
	for rows.Next() {
		var startTimeStr string
		var endTimeStr sql.NullString
		var kwh float64
		if err := rows.Scan(&startTimeStr, &endTimeStr, &kwh); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		start, err := time.ParseInLocation(timestampLayout, startTimeStr, loc)
		if err != nil {
			return nil, fmt.Errorf("parsing start_time: %w", err)
		}
		if endTimeStr.Valid && endTimeStr.String != "" {
			end, err := time.ParseInLocation(timestampLayout, endTimeStr.String, loc)
			if err != nil {
				return nil, fmt.Errorf("parsing end_time: %w", err)
			}
			if d := end.Sub(start); d != time.Hour {
				return nil, fmt.Errorf("row starting %s covers %s, expected one hour", startTimeStr, d)
			}
		}

		usage[start.Unix()] = models.UsageReading{
			Start:   start,
			UsageWh: kwh * 1000,
			Cost:    kwh * rate,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(usage) == 0 {
		services, err := db.Services()
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no hourly usage for service %q (available: %v)", service, services)
	}
	return usage, nil
}

// Services lists the distinct services present in the database
func (db *DB) Services() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT service FROM usage_data ORDER BY service`)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	var services []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
