// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The Harvester runs independent harvest jobs concurrently, persists each
// job's records, and merges successful outputs into the combined corpus.
package services
