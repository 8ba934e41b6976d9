package errors_test

import (
	"fmt"

	"github.com/dashwire/pulse/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	// Create a not found error
	err := &errors.NotFoundError{
		Resource: "connection",
		ID:       "conn-1234",
	}

	// Check error type
	if errors.IsNotFound(err) {
		fmt.Println("Connection not found")
	}

	// Output: Connection not found
}

// Example_validationError demonstrates subscription validation handling.
func Example_validationError() {
	// Reject an unknown event type
	err := errors.NewValidationError("event_types", "file-changed", "unknown event type")

	if errors.IsValidationError(err) {
		fmt.Println(err.Error())
	}

	// Output: validation failed for field event_types: unknown event type
}

// Example_processError shows external command error handling.
func Example_processError() {
	// Wrap a failed git invocation
	err := errors.NewProcessError("commit scan", "git log --oneline", "", nil)

	fmt.Println(err.Command)

	// Output: git log --oneline
}

// Example_wrapIO demonstrates the IO wrap helper.
func Example_wrapIO() {
	readErr := errors.New("permission denied")
	err := errors.WrapIO("read", "/workspace/tasks.json", readErr)

	fmt.Println(err.Error())

	// Output: IO error during read of /workspace/tasks.json: permission denied
}
