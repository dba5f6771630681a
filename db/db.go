package db

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/database"
	"github.com/xxxsen/common/database/sqlite"
)

var (
	dbClient database.IDatabase
)

var sqllist = []struct {
	name string
	sql  string
}{
	{
		name: "init_upload_session_tab",
		sql: `
CREATE TABLE IF NOT EXISTS upload_session_tab (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    fingerprint   TEXT NOT NULL,
    task_id       TEXT NOT NULL,
    bucket        TEXT NOT NULL,
    object_name   TEXT NOT NULL,
    session_id    TEXT NOT NULL,
    location      TEXT NOT NULL,
    total_size    INTEGER NOT NULL,
    chunk_size    INTEGER NOT NULL,
    content_type  TEXT,
    bytes_sent    INTEGER NOT NULL,
    session_state INTEGER NOT NULL,
    ctime         INTEGER,
    mtime         INTEGER,
    UNIQUE (fingerprint)
);
		`,
	},
}

func InitDB(file string) error {
	ctx := context.Background()
	db, err := sqlite.New(file, func(db database.IDatabase) error {
		for _, item := range sqllist {
			if _, err := db.ExecContext(ctx, item.sql); err != nil {
				return fmt.Errorf("init sql failed, sql:%s, err:%w", item.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	dbClient = db
	return nil
}

func GetClient() database.IDatabase {
	return dbClient
}
