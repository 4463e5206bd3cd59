package kv

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	namespace TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// SQLite keeps namespaces in a single table of an SQLite database. Writes of
// one namespace are committed in one transaction on Close.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "kv: open %s", path)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "kv: create schema in %s", path)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Open(namespace string, readOnly bool) (Namespace, error) {
	rows, err := s.db.Query(`SELECT key, value FROM kv WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, errors.Wrapf(err, "kv: query namespace %s", namespace)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrapf(err, "kv: scan namespace %s", namespace)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "kv: read namespace %s", namespace)
	}

	return &sqliteNamespace{entries: newEntries(namespace, readOnly, values), db: s.db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteNamespace struct {
	*entries
	db *sql.DB
}

func (n *sqliteNamespace) Close() error {
	dirty, err := n.finish()
	if err != nil || !dirty {
		return err
	}

	tx, err := n.db.Begin()
	if err != nil {
		return errors.Wrapf(err, "kv: begin write of namespace %s", n.name)
	}

	for k, v := range n.values {
		if _, err := tx.Exec(
			`INSERT INTO kv (namespace, key, value) VALUES (?, ?, ?)
			 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value`,
			n.name, k, v,
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "kv: write %s/%s", n.name, k)
		}
	}

	return errors.Wrapf(tx.Commit(), "kv: commit namespace %s", n.name)
}
