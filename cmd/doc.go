// Package cmd provides the command-line interface for afmt.
//
// # Available Commands
//
//   - generate: Implement the stub functions of the matched packages
//   - check: Report packages whose generated file is missing or stale
//   - inspect: Show the computed bound of every stub
//   - watch: Regenerate when stub files change
//   - version: Show build information
//
// # Command Examples
//
//	// Generate every package below the current directory
//	afmt generate ./...
//
//	// Fail in CI when a generated file is out of date
//	afmt check --diff ./...
//
//	// Show bounds as YAML
//	afmt inspect -o yaml ./internal/greet
//
//	// Regenerate on save
//	afmt watch --debounce 500ms
//
// # Configuration Integration
//
// Commands respect configuration from multiple sources in order of precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (AFMT_*)
//  3. Configuration file (.afmt.yml)
//  4. Default values (lowest priority)
package cmd
