// Package password hashes and verifies credentials with argon2id in PHC
// string format. It backs credential validators that keep their user table
// locally; deployments validating against an external directory do not need
// it.
package password
