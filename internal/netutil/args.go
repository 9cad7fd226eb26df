// Package netutil collects the small cross-cutting helpers shared by the
// coordinator and replica entrypoints: positional-argument parsing, the
// simulated WAN delay, and dial-with-timeout.
package netutil

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// logFatal is a variable so tests can intercept a fatal configuration error
// without terminating the test process.
var logFatal = log.Fatalf

// MustArg returns os.Args[i], terminating the process with a usage message
// if the argument is missing. i is 1-based over the args following the
// program name (MustArg(1) is os.Args[1]).
func MustArg(i int, usage string) string {
	if i >= len(os.Args) {
		logFatal("missing argument %d: usage: %s", i, usage)
		return ""
	}
	return os.Args[i]
}

// MustIntArg parses os.Args[i] as an integer, terminating the process with a
// usage message if it is missing or not a valid integer.
func MustIntArg(i int, usage string) int {
	v := MustArg(i, usage)
	n, err := strconv.Atoi(v)
	if err != nil {
		logFatal("argument %d must be an integer, got %q: usage: %s", i, v, usage)
		return 0
	}
	return n
}

// OptionalArg returns os.Args[i] if present, otherwise def.
func OptionalArg(i int, def string) string {
	if i >= len(os.Args) {
		return def
	}
	return os.Args[i]
}

// OptionalIntArg returns os.Args[i] parsed as an integer if present,
// otherwise def. A present-but-invalid argument is a fatal error.
func OptionalIntArg(i int, def int) int {
	if i >= len(os.Args) {
		return def
	}
	n, err := strconv.Atoi(os.Args[i])
	if err != nil {
		logFatal("argument %d must be an integer, got %q", i, os.Args[i])
		return 0
	}
	return n
}

// Addr formats a loopback host:port pair for net.Dial/net.Listen.
func Addr(port int) string {
	return fmt.Sprintf(":%d", port)
}

// DialAddr formats a host:port pair for dialing a peer on the local machine.
func DialAddr(port int) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}
