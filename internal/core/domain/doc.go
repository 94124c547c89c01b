// Package domain defines the core business entities for the harvester.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque bytes from a connector
//   - ParsedDocument: A document split into structural sections
//   - Record: One retrievable section with deep-link and audience metadata
//   - Config: The immutable pipeline configuration
//   - JobResult / RunSummary: Outcome of harvest jobs and merges
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
