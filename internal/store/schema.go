package store

// schemaVersionV1 is the current schema: one row per survey for
// inputs and results, canonical fields as JSON payloads.
const schemaVersionV1 = 1

var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS survey_inputs (
	survey_id    TEXT PRIMARY KEY,
	farm_id      TEXT NOT NULL,
	milk_year    INTEGER NOT NULL,
	payload      TEXT NOT NULL,
	last_updated TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS emission_results (
	survey_id    TEXT PRIMARY KEY,
	farm_id      TEXT,
	milk_year    INTEGER,
	payload      TEXT NOT NULL,
	last_updated TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_inputs_farm ON survey_inputs(farm_id);
CREATE INDEX IF NOT EXISTS idx_results_farm ON emission_results(farm_id);
`
