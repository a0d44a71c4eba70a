// Package browser provides the drivers a test session browses with.
//
// Two kinds of driver exist:
//   - emulated: an in-process browser that keeps its own cookie jar and history
//   - remote: a real Chrome instance driven over the DevTools protocol
//
// Only emulated drivers expose their cookies. Callers check with
// Driver.CookieJar before reading them.
package browser
