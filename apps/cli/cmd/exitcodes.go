package cmd

// Exit codes for apitest CLI
const (
	// ExitSuccess indicates the request was sent and all expectations passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more expectations failed
	ExitTestFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
