// Package daemonrun wires configuration into the full resolver stack and
// runs it as a daemon.
package daemonrun
