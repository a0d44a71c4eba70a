// Package env loads the variables a test session works with.
//
// It provides functionality for:
//   - Loading .env files
//   - Reading prefixed process environment variables
//   - Variable interpolation using {{variable}} and {{$ENV_VAR}} syntax
package env
