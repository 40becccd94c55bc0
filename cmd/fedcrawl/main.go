// Package main provides the entry point for the fedcrawl CLI.
//
// fedcrawl manages the durable archive of a federated-network crawl:
// seeding entities, inspecting progress, and initializing configuration.
//
// Usage:
//
//	fedcrawl seed <entity-id> [<entity-id>...]
//	fedcrawl status
//
// See --help for all available options.
package main

// main is the entry point for fedcrawl.
func main() {
	Execute()
}
