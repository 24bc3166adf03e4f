package website

import "errors"

var (
	// ErrWebsiteNotFound is returned when no website matches the identifier.
	ErrWebsiteNotFound = errors.New("website not found")

	// ErrNoWebsiteInContext is returned when a route needs a website and none was resolved.
	ErrNoWebsiteInContext = errors.New("no website in context")

	// ErrInactiveWebsite is returned for websites that are switched off.
	ErrInactiveWebsite = errors.New("website is inactive")
)
