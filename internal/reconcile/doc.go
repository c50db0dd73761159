// Package reconcile turns desired state and a fresh host observation into
// an action, and carries that action out through the external tools.
//
// The decision functions are pure and total: given well-formed, normalized
// input and a successful probe they always produce a decision and never
// fail. All failure lives at the edges, in normalization, probing, or
// execution.
//
// One deliberate asymmetry is preserved from the declared contract:
// containers are only ever recreated for an explicit recreate request or
// for image-ID drift. Drift in ports, volumes, network, or restart policy
// is observed and logged but never acted on.
package reconcile
