package apirequest

import (
	"github.com/abdul-hamid-achik/apitest/packages/browser"
	"github.com/abdul-hamid-achik/apitest/packages/http"
)

// CookieHeader is the request header cookies are merged into.
const CookieHeader = "Cookie"

// DecorateWithCookies appends every cookie in the driver's jar to the Cookie
// header of opts, in jar order and without de-duplication. An existing
// Cookie header is extended with "; ". When the driver has no cookie jar
// opts is returned as is; otherwise a modified copy is returned.
func DecorateWithCookies(driver browser.Driver, opts http.Options) http.Options {
	if driver == nil {
		return opts
	}
	jar, ok := driver.CookieJar()
	if !ok || jar == nil {
		return opts
	}

	cookies := jar.All()
	if len(cookies) == 0 {
		return opts
	}

	decorated := opts.Clone()
	for _, c := range cookies {
		if _, value, ok := decorated.Header(CookieHeader); ok {
			decorated.SetHeader(CookieHeader, value+"; "+c.String())
		} else {
			decorated.SetHeader(CookieHeader, c.String())
		}
	}
	return decorated
}
