// Package session models the persisted Instagram session blob and its
// on-disk store.
//
// The blob holds the stable device identity plus whatever authentication
// state the client captured after a successful login. Reusing it across runs
// avoids repeated password logins; preserving the device identity across a
// session refresh keeps the remote service seeing one consistent device.
package session
