// Package file loads the harvester configuration from disk.
//
// The pipeline settings and job list live in a TOML file; the data-driven
// rule tables (personas, FAQ, noise, error signatures, boilerplate) live in
// an optional YAML file referenced by rules_file.
package file
