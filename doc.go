// Package sessiongate is the session authentication and cookie-binding layer
// of a groupware AJAX façade: the per-request gate deciding whether an
// incoming HTTP request is attached to a valid, un-tampered, correctly
// located session, plus the login/logout/autologin/redirect flows that
// create, renew, and destroy that binding.
//
// The package is designed for concurrent server workloads: Gateway methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// sessiongate is the public surface. It exposes [Gateway], [Builder],
// [Config], the collaborator contracts ([Registry], [CredentialValidator],
// [ContextProvider]), and value types. Credential validation and
// context/tenant state are external collaborators consumed through those
// interfaces; business-data semantics of downstream handlers are out of
// scope entirely.
//
// # What this package must NOT do
//
//   - Expose Redis clients or registry encoding details in its public API.
//   - Hold locks: the registry is the single shared mutable resource and
//     provides the atomicity (including one-time token redemption).
//   - Put a session id into a URL query string or a response body field
//     other than the session descriptor; redirect targets carry it only in
//     the URL fragment.
package sessiongate
