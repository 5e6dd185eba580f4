// Package exporter writes the scanner's tabular outputs: the merged option
// table and the day-wise gain report, as CSV and as Excel workbooks.
package exporter
