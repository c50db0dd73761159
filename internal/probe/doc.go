// Package probe queries the host for the current facts a reconciliation
// decision needs: certificate existence and expiry, and running-container
// metadata. Probers are read-only and never mutate host state.
//
// Observations are taken fresh on every call; nothing is cached between
// invocations because the host can change behind the tool's back.
//
// "Not found" is a normal observation (Exists=false), not an error. A
// failing query (the external tool is broken or unavailable) surfaces as
// a probe error and is fatal for the invocation; it is never downgraded
// to "assume absent".
package probe
