// Package apirequest sends API requests from functional tests.
//
// Every dispatch applies test defaults the caller cannot override: HTTP error
// statuses come back as ordinary responses and redirects are returned
// instead of followed. Cookies held by an emulated browser driver are copied
// onto the request so API calls share the browser's session.
package apirequest
