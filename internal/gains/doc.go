// Package gains derives per-contract analytics from the merged option table:
// the day-wise gain report and the underlying reference-price resolution used
// when the report is displayed.
package gains
