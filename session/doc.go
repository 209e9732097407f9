// Package session holds the session record and its Redis-backed registry.
//
// The registry is the single shared mutable resource of the gateway: it owns
// every session record and offers atomic create/lookup/refresh/remove
// operations safe under concurrent requests referencing the same session id.
// Callers never hold a live reference into the registry; every lookup returns
// a decoded copy and every mutation goes back through the store.
package session
