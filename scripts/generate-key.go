// Package main is a development utility for generating a random secret suitable
// for ADMC_JWT_SECRET. It prints the value as a ready-to-paste export statement
// so developers can quickly configure a local server without inventing a weak
// secret by hand.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

func main() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("Failed to generate random bytes: %v", err)
	}
	secret := hex.EncodeToString(buf)

	fmt.Println("Generated JWT signing secret:")
	fmt.Println()
	fmt.Printf("  export ADMC_JWT_SECRET=%s\n", secret)
	fmt.Println()
	fmt.Println("Store this value in your secret manager. Rotating it invalidates all active sessions.")
}
