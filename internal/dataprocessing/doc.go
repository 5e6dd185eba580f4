// Package dataprocessing ingests exchange F&O bhav-copy files and builds the
// merged options table.
//
// The package covers three concerns:
//
//   - decomposing composite contract symbols (OPTSTK/OPTIDX grammar) into
//     structured instrument keys
//   - extracting trading dates from archive and folder names (DDMMYY suffix)
//   - the merge pipeline: scanning a source directory for dated archives or
//     folders, parsing the contained CSV files, normalizing degenerate prices
//     and concatenating everything into one flat table
//
// The pipeline is a full rebuild on every run; there is no incremental merge.
// Malformed source files are skipped and logged, never fatal to the batch.
package dataprocessing
