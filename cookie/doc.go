// Package cookie derives per-client cookie names and writes the session and
// secret cookies that bind a browser to a server-side session.
//
// Cookie names carry a short hash suffix so that distinct client types
// (desktop UI, mobile UI) sharing one browser profile never collide in the
// cookie namespace: session-<hash> holds the session id, secret-<hash> holds
// the server-issued secret.
package cookie
