// Package prometheus records pipeline counters in a Prometheus registry.
//
// The registry is private to the process. When a metrics file is configured
// Flush writes it in the text exposition format, suitable for the node
// exporter's textfile collector.
package prometheus
