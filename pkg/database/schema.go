package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the clinic tables and indexes when they are missing
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.WithComponent("database").Info("Creating database schema...")

	for _, stmt := range SchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	db.logger.WithComponent("database").Info("Database schema created successfully")
	return nil
}

// SchemaStatements returns the DDL in application order
func SchemaStatements() []string {
	return []string{
		createPatientsTable,
		createPhysiotherapistsTable,
		createAppointmentsTable,
		createNotificationsTable,
		addDirectorySequences,
		createAppointmentsIndexes,
		createNotificationsIndexes,
	}
}

const createPatientsTable = `
CREATE TABLE IF NOT EXISTS patients (
	seq                      BIGSERIAL,
	id                       TEXT PRIMARY KEY,
	name                     TEXT NOT NULL,
	sex                      TEXT NOT NULL DEFAULT '',
	date_of_birth            TEXT NOT NULL DEFAULT '',
	age                      INTEGER NOT NULL DEFAULT 0,
	phone_number             TEXT NOT NULL DEFAULT '',
	complaint                TEXT NOT NULL DEFAULT '',
	home_program             TEXT,
	comments                 TEXT,
	assigned_physiotherapist TEXT
);`

const createPhysiotherapistsTable = `
CREATE TABLE IF NOT EXISTS physiotherapists (
	seq            BIGSERIAL,
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT NOT NULL,
	specialization TEXT
);`

const createAppointmentsTable = `
CREATE TABLE IF NOT EXISTS appointments (
	id                 TEXT PRIMARY KEY,
	patient_id         TEXT NOT NULL,
	physiotherapist_id TEXT NOT NULL,
	date               TEXT NOT NULL,
	time_slot          TEXT NOT NULL,
	status             TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'declined', 'completed')),
	created_at         TIMESTAMPTZ NOT NULL,
	approved_at        TIMESTAMPTZ,
	updated_at         TIMESTAMPTZ NOT NULL
);`

// Directory listings follow insertion order; tables created before seq
// existed get the column here.
const addDirectorySequences = `
ALTER TABLE patients ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
ALTER TABLE physiotherapists ADD COLUMN IF NOT EXISTS seq BIGSERIAL;`

// The partial unique index enforces slot exclusivity for active appointments.
const createAppointmentsIndexes = `
CREATE UNIQUE INDEX IF NOT EXISTS appointments_active_slot_idx
	ON appointments (date, time_slot)
	WHERE status IN ('pending', 'approved');
CREATE INDEX IF NOT EXISTS appointments_physiotherapist_idx ON appointments (physiotherapist_id);
CREATE INDEX IF NOT EXISTS appointments_patient_idx ON appointments (patient_id);`

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	type       TEXT NOT NULL,
	message    TEXT NOT NULL,
	read       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);`

const createNotificationsIndexes = `
CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, seq);`
