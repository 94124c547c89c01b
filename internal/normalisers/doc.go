// Package normalisers provides the registry that routes raw documents to
// the Normaliser implementations in its sub-packages (html, pdf).
//
// Normalisers are registered with the Registry at startup.
package normalisers
