// Package builtin provides the value generators available in request
// placeholders.
//
// Available functions:
//   - uuid(): Random UUID v4
//   - now(layout?): Current UTC time, RFC 3339 unless a layout is given
//   - timestamp(): Current Unix timestamp
//   - randomString(length?): Random alphanumeric string
//   - randomEmail(): Random address under example.com
//   - basicAuth(user, password): Value for an Authorization header
//   - base64(value), urlEncode(value), sha256(value)
//
// Functions are invoked with the {{$name(args)}} syntax.
package builtin
