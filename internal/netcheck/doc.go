// Package netcheck provides TCP reachability probes for the botup CLI.
//
// Its single concern is answering "can this host reach the Discord
// gateway right now?" for status output. Probes are bounded by a dial
// timeout so a dead network degrades status to "unreachable" instead of
// hanging the command.
package netcheck
