package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"dairypipe/internal/record"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .dairypipe) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec(`INSERT INTO schema_version(version) VALUES(?)`, schemaVersionV1); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersionV1 {
		return fmt.Errorf("unsupported schema version %d", version)
	}
	return nil
}

// Close releases the database handle.
func (s *SqlStore) Close() error { return s.db.Close() }

// --- Inputs ---

func (s *SqlStore) Inputs() ([]record.Record, error) {
	rows, err := s.db.Query(`SELECT payload FROM survey_inputs ORDER BY survey_id`)
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	defer rows.Close()
	var out []record.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		var r record.Record
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode input payload: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SqlStore) GetInput(surveyID string) (record.Record, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM survey_inputs WHERE survey_id = ?`, surveyID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get input: %w", err)
	}
	var r record.Record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode input payload: %w", err)
	}
	return r, nil
}

func (s *SqlStore) UpsertInputs(recs []record.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert inputs: %w", err)
	}
	defer tx.Rollback()

	now := nowUTC()
	for _, r := range recs {
		id := r.SurveyID()
		if id == "" {
			return errors.New("upsert inputs: record without survey_id")
		}
		farm, _ := r[record.FieldFarmID].(string)
		year, _ := record.AsInt(r[record.FieldMilkYear])
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode input %s: %w", id, err)
		}
		_, err = tx.Exec(
			`INSERT INTO survey_inputs(survey_id, farm_id, milk_year, payload, last_updated)
			 VALUES(?, ?, ?, ?, ?)
			 ON CONFLICT(survey_id) DO UPDATE SET
			   farm_id = excluded.farm_id,
			   milk_year = excluded.milk_year,
			   payload = excluded.payload,
			   last_updated = excluded.last_updated`,
			id, farm, year, string(payload), now,
		)
		if err != nil {
			return fmt.Errorf("upsert input %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SqlStore) DeleteInput(surveyID string) error {
	if _, err := s.db.Exec(`DELETE FROM survey_inputs WHERE survey_id = ?`, surveyID); err != nil {
		return fmt.Errorf("delete input %s: %w", surveyID, err)
	}
	return nil
}

// --- Results ---

func (s *SqlStore) Results() ([]ResultRow, error) {
	rows, err := s.db.Query(`SELECT payload FROM emission_results ORDER BY survey_id`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	var out []ResultRow
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var r ResultRow
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode result payload: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SqlStore) UpsertResults(rows []ResultRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert results: %w", err)
	}
	defer tx.Rollback()

	now := nowUTC()
	for _, row := range rows {
		id := row.SurveyID()
		if id == "" {
			return errors.New("upsert results: row without survey_id")
		}
		farm, _ := row["farm_id"].(string)
		year, _ := record.AsInt(row["milk_year"])
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode result %s: %w", id, err)
		}
		_, err = tx.Exec(
			`INSERT INTO emission_results(survey_id, farm_id, milk_year, payload, last_updated)
			 VALUES(?, ?, ?, ?, ?)
			 ON CONFLICT(survey_id) DO UPDATE SET
			   farm_id = excluded.farm_id,
			   milk_year = excluded.milk_year,
			   payload = excluded.payload,
			   last_updated = excluded.last_updated`,
			id, farm, year, string(payload), now,
		)
		if err != nil {
			return fmt.Errorf("upsert result %s: %w", id, err)
		}
	}
	return tx.Commit()
}
