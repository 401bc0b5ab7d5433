// Package writer implements the asset file export.
//
// Components:
//   - Record formatter: one instrument -> one 16-column Zorro asset line
//   - Asset writer: create/truncate once, header once, one line per record
//
// All numbers are rendered as fixed-point decimals with a '.' separator and no
// grouping, independent of the process locale.
package writer
