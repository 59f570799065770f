// Package driving provides interfaces for inbound adapters (primary ports)
// such as the CLI.
package driving
