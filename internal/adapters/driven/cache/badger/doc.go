// Package badger implements the fetch cache on BadgerDB.
//
// Downloaded PDF bytes are stored under their source URL with an optional
// time-to-live, so repeated harvests and merge-only re-runs do not download
// the same documents again.
package badger
