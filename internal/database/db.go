// Package database opens the MySQL handle shared by every repository.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool sizing: the purchase transaction holds a connection across the
// inventory decrement, the insert retries and the select-back, so the pool
// is kept larger than the expected concurrent purchase load.  Idle
// connections are trimmed harder since catalog reads are short-lived.
const (
	maxOpenConns    = 30
	maxIdleConns    = 10
	connMaxLifetime = 5 * time.Minute
)

// dsn builds the connection string.  parseTime turns DATETIME columns into
// time.Time and loc=UTC keeps the purchase and event timestamps in the one
// zone the whole service works in.
func dsn(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = user + ":" + pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)
}

// Open connects to MySQL, applies the pool settings and verifies the
// connection with a bounded ping so a dead database fails startup fast
// instead of on the first request.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
