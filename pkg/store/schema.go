package store

// Decimal columns are TEXT so no precision is lost. The seq columns record
// insertion order.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS residents (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	unit TEXT NOT NULL DEFAULT '',
	telegram_chat_id INTEGER NOT NULL DEFAULT 0,
	role TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS notifications (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	type TEXT NOT NULL,
	link TEXT NOT NULL DEFAULT '',
	is_read BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	archived_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
CREATE TABLE IF NOT EXISTS billing_accounts (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	resident_id TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	loan_amount TEXT NOT NULL,
	annual_rate_percent TEXT NOT NULL,
	term_years INTEGER NOT NULL,
	monthly_payment TEXT NOT NULL,
	payments_made INTEGER NOT NULL DEFAULT 0,
	start_date DATETIME NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS announcements (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	author_id TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	event_date DATETIME,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS vehicles (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	resident_id TEXT NOT NULL,
	plate TEXT NOT NULL,
	make TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	permit_number TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS visitor_passes (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	resident_id TEXT NOT NULL,
	visitor_name TEXT NOT NULL,
	plate TEXT NOT NULL DEFAULT '',
	valid_from DATETIME NOT NULL,
	valid_until DATETIME NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS service_requests (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	resident_id TEXT NOT NULL,
	category TEXT NOT NULL,
	description TEXT NOT NULL,
	status TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS residents (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	unit TEXT NOT NULL DEFAULT '',
	telegram_chat_id BIGINT NOT NULL DEFAULT 0,
	role TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS notifications (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	type TEXT NOT NULL,
	link TEXT NOT NULL DEFAULT '',
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	archived_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
CREATE TABLE IF NOT EXISTS billing_accounts (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	resident_id TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	loan_amount TEXT NOT NULL,
	annual_rate_percent TEXT NOT NULL,
	term_years INTEGER NOT NULL,
	monthly_payment TEXT NOT NULL,
	payments_made INTEGER NOT NULL DEFAULT 0,
	start_date TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS announcements (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	author_id TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	event_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS vehicles (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	resident_id TEXT NOT NULL,
	plate TEXT NOT NULL,
	make TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	permit_number TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS visitor_passes (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	resident_id TEXT NOT NULL,
	visitor_name TEXT NOT NULL,
	plate TEXT NOT NULL DEFAULT '',
	valid_from TIMESTAMPTZ NOT NULL,
	valid_until TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS service_requests (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	resident_id TEXT NOT NULL,
	category TEXT NOT NULL,
	description TEXT NOT NULL,
	status TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
