// Generates a bcrypt hash for a staff password. Useful for seeding the first
// admin account directly in SQL before the registration endpoint is reachable.
package main

import (
	"fmt"
	"os"

	"github.com/admin-console/admin-console/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <password>\n", os.Args[0])
		os.Exit(1)
	}

	hash, err := auth.HashPassword(os.Args[1], 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
