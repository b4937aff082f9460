// Package errors provides structured errors with stable codes.
//
// Every rejection the engine can produce carries one of the codes in
// codes.go; the transport layer translates codes into wire error strings
// and never lets them escape as a crash.
package errors
