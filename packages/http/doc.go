// Package http provides the HTTP transport used by apitest.
//
// It wraps the standard library's http package with:
//   - Guzzle-style request options (body, json, headers, query, auth)
//   - Per-request redirect and HTTP error policies
//   - Configurable timeouts, proxy and TLS verification
//   - Response handling with JSON path lookups
package http
