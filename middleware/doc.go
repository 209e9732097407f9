// Package middleware adapts the sessiongate authentication gate to standard
// net/http middleware chains (chi, gorilla, plain mux).
package middleware
