// Package connectors provides implementations of the Connector interface
// for the harvest job kinds. Each connector knows how to acquire raw
// documents for one job: the web crawler walks links from seed URLs and
// the pdf connector downloads a configured list of sources.
//
// Connectors are created per job by the Factory.
package connectors
