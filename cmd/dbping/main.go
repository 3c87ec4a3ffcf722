// Quick connectivity check against the configured Postgres instance.
// Useful when debugging deployments where the service fails to start.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run cmd/dbping/main.go
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

func main() {
	var dsn string
	flag.StringVar(&dsn, "dsn", "", "Postgres connection string (defaults to DATABASE_URL)")
	flag.Parse()

	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "No connection string: pass -dsn or set DATABASE_URL")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open connection: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetConnMaxLifetime(30 * time.Second)

	start := time.Now()
	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Ping failed: %v\n", err)
		os.Exit(1)
	}

	var version string
	if err := db.QueryRow("SELECT version()").Scan(&version); err != nil {
		fmt.Fprintf(os.Stderr, "Version query failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connected in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Server: %s\n", version)
}
