package admission

// Outcome is the verdict of a single filter, or of the chain as a whole:
// either continue, possibly with headers to inject toward the backend, or
// halt with a terminal status. Once a halt is produced no later filter or
// backend runs.
type Outcome struct {
	halted bool

	// Status and Message describe the terminal response for a halt.
	Status  int
	Message string

	// Headers are injected toward the backend on continue.
	Headers map[string]string
}

// Continue lets the request proceed unchanged.
func Continue() Outcome {
	return Outcome{}
}

// ContinueWith lets the request proceed with headers added for downstream
// services.
func ContinueWith(headers map[string]string) Outcome {
	return Outcome{Headers: headers}
}

// Halt terminates the request with the given status. The message travels to
// the client in the X-Error-Message header.
func Halt(status int, message string) Outcome {
	return Outcome{halted: true, Status: status, Message: message}
}

// Halted reports whether this outcome terminates the request.
func (o Outcome) Halted() bool {
	return o.halted
}
