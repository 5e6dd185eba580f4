// Package files provides filesystem discovery for the bhav-copy source
// directory: dated archives and folders, candidate tabular files inside them,
// and staleness checks on the merged table.
package files
