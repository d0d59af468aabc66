// Clears the dirty flag in schema_migrations after a failed migration run.
// Only use this when you have verified the schema is actually in a good state.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=admin_console password=admin_console dbname=admin_console sslmode=disable"
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	var version int64
	var dirty bool
	err = db.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty)
	if err != nil {
		log.Fatalf("Failed to read schema_migrations: %v", err)
	}

	fmt.Printf("Current migration state: version=%d dirty=%v\n", version, dirty)
	if !dirty {
		fmt.Println("Migration state is clean, nothing to do")
		return
	}

	if _, err := db.Exec("UPDATE schema_migrations SET dirty = false"); err != nil {
		log.Fatalf("Failed to clear dirty flag: %v", err)
	}
	fmt.Printf("Cleared dirty flag at version %d. Re-run migrations to continue.\n", version)
}
