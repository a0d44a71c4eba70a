// Package assertions checks API responses in functional tests.
//
// Supported subjects:
//   - status, duration
//   - header <name>
//   - body, or body.<path> for JSON bodies (gjson paths, [N] indexes allowed)
//
// Operators: == != > >= < <= contains !contains startsWith endsWith matches
// exists !exists length type schema. Expectations can be written as text,
// for example `status == 404` or `header Location == /user/1`.
package assertions
