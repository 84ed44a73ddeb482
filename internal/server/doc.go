// Package server runs the local OAuth callback used by the auth command.
//
// [OAuthHandler] serves the redirect URI path. It checks the state parameter, hands the
// authorization code to an [Exchanger] and delivers one [OAuthResult] on its channel; later
// requests are rejected.
//
// [BasicRouter] registers [Handler] values on an [http.ServeMux] behind a [Middleware] stack.
// [LogRequests] is the only middleware in use.
package server
