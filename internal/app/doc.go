// Package app wires the region factory into a runnable application: it turns
// configuration into a logger and a Factory, and exposes the operations the
// CLI offers, decoupled from any specific entrypoint.
package app
