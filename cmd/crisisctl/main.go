// Command crisisctl inspects the crisis feeds from the terminal: it lists the
// normalized snapshot, prints recommendations for one crisis and validates
// that every record in a data directory normalizes cleanly.
//
// Usage:
//
//	go run ./cmd/crisisctl crises --data-dir data
//	go run ./cmd/crisisctl recommend FFG-2025-0714-01
//	go run ./cmd/crisisctl validate --data-dir data
package main

func main() {
	Execute()
}
