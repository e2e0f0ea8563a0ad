// Package instagram implements the minimal private-API surface the pipeline
// needs: password login, an authenticated timeline probe, story listing, and
// media download.
//
// The client carries the exportable session state (device identity, cookies,
// authorization token) that internal/session persists between runs. All
// wire-level details stay inside this package; the authenticator depends
// only on a small interface over it.
package instagram
