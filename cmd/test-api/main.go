// Smoke test for a running server. Hits the health and version endpoints and
// prints the raw responses so a deploy can be verified from the command line.
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	base := os.Getenv("ADMC_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 10 * time.Second}
	for _, path := range []string{"/health", "/version"} {
		url := base + path
		resp, err := client.Get(url)
		if err != nil {
			log.Fatalf("Request to %s failed: %v", url, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Fatalf("Failed to read response from %s: %v", url, err)
		}

		fmt.Printf("GET %s -> %d\n%s\n\n", path, resp.StatusCode, string(body))
		if resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
	}
}
