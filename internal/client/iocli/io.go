// Package iocli is the terminal I/O of the operator CLI.
package iocli

//go:generate moq -out io_mock.go . IO

// IO is what commands use to talk to the operator.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	// ReadSecret reads a line without echoing it when stdin is a terminal
	ReadSecret(prompt string) (string, error)
}
