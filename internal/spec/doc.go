// Package spec defines the desired-state model for the two resource kinds
// converge manages: letsencrypt certificates and docker containers.
//
// Raw input (a plan file or CLI flags) is heterogeneous: a domain field may
// be a single string or a list, env may be a map or a list of KEY=VALUE
// strings, command may be a string or an argument list. Each of these
// shapes is resolved exactly once, at the normalization boundary, into one
// canonical typed value per field. Everything downstream of this package
// sees only normalized values.
//
// Normalization is pure: it has no side effects and touches no host state.
// All contradictory or malformed input surfaces here as a validation
// error, before any probing happens.
package spec
