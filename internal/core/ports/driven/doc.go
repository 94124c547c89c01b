// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Streams raw documents for one harvest job
//   - ConnectorFactory: Creates connectors from job configuration
//   - Fetcher: Retrieves the bytes of a single URL or file
//   - Normaliser: Splits a raw document into structural sections
//   - NormaliserRegistry: Selects the appropriate normaliser
//   - PostProcessorPipeline: Turns sections into filtered records
//   - RecordStore: Per-job outputs and the combined corpus
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - FetchCache: Local copy of binary sources keyed by URL.
//   - RunLedger: History of runs and job outcomes.
//   - Metrics: Pipeline counters and durations.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
