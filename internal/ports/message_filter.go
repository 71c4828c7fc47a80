package ports

// MessageFilter is a front end that feeds messages to the URL checker
type MessageFilter interface {
	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
