// Package main is a diagnostic tool for testing database connectivity and
// inspecting live staff account data. It connects to the database, summarizes
// the users and role_permissions tables, and prints the result to stdout. The
// binary exits with a non-zero code on any failure so it can be embedded in
// health checks or CI/CD pipeline steps to gate deployments on a reachable,
// migrated database.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dbPassword := os.Getenv("DATABASE_PASSWORD")
	if dbPassword == "" {
		dbPassword = "admin_console"
	}

	connStr := fmt.Sprintf("host=localhost port=5432 user=admin_console password=%s dbname=admin_console sslmode=disable", dbPassword)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	// Account summary per role and lock state
	fmt.Println("=== USERS ===")
	rows, err := db.Query(`
		SELECT role_type, is_active, email_verified, COUNT(*)
		FROM users
		GROUP BY role_type, is_active, email_verified
		ORDER BY role_type, is_active DESC`)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var roleType string
		var active, verified bool
		var count int
		if err := rows.Scan(&roleType, &active, &verified, &count); err != nil {
			log.Printf("Warning: failed to scan user summary row: %v", err)
			continue
		}
		state := "active"
		if !active {
			state = "locked"
		}
		mail := "verified"
		if !verified {
			mail = "unverified"
		}
		fmt.Printf("Role %s: %d %s, %s\n", roleType, count, state, mail)
		total += count
	}
	if total == 0 {
		fmt.Println("No users found!")
	}

	// Permission table sanity
	fmt.Println("\n=== ROLE PERMISSIONS ===")
	rows2, err := db.Query("SELECT role_type, permission FROM role_permissions ORDER BY role_type, permission")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	perms := 0
	for rows2.Next() {
		var roleType, permission string
		if err := rows2.Scan(&roleType, &permission); err != nil {
			log.Printf("Warning: failed to scan permission row: %v", err)
			continue
		}
		fmt.Printf("%s -> %s\n", roleType, permission)
		perms++
	}
	if perms == 0 {
		fmt.Println("role_permissions is empty; migrations have not been applied!")
		os.Exit(1)
	}
}
