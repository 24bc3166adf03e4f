// Package inbox serves the in-app notification channel over HTTP.
//
// Notifications written by the dispatcher's in_app deliverer are listed,
// counted, marked read and deleted per user. Requests are scoped to the website
// resolved by website.Middleware: listing filters on it and notifications of
// other websites answer 404. Unread counts and mark-all-read span every website
// of the user.
package inbox
