// Package pdf provides a Normaliser implementation for PDF documents.
//
// Text is extracted per physical page with github.com/ledongthuc/pdf and
// reordered by position: rows top to bottom, glyphs left to right within a
// row. Wide horizontal gaps become " | " so that table cells and side by
// side columns stay distinguishable. Every page becomes one section.
package pdf
