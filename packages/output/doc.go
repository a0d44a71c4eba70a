// Package output renders dispatched exchanges, expectation results and
// journal history.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
package output
