// Package database opens the MySQL pool shared by every repository.  All of
// the storefront's durable state lives here: accounts and sessions, store
// profiles, product catalogs and order snapshots.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// buildDSN assembles the driver DSN.  Options carried on every connection:
//   - parseTime: DATETIME columns scan into time.Time
//   - loc=UTC: all timestamps stay UTC end to end
//   - clientFoundRows: RowsAffected counts matched rows, not changed rows.
//     The product and store repositories classify RowsAffected()==0 as
//     "missing or foreign"; without this flag an owner resubmitting an
//     unchanged form would match that classification and get rejected.
func buildDSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)
}

// Open connects to MySQL, applies pool limits sized for the single-binary
// deployment, and verifies the connection before handing the pool out.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", buildDSN(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
