// Package cmd implements the apitest CLI commands using Cobra.
//
// Available commands:
//   - send: Dispatch one request relative to the base URL
//   - history: Show exchanges recorded in the journal
//   - version: Show apitest version information
package cmd
