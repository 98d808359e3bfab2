package publisher

// Publisher represents a service for publishing newly observed listings to
// downstream consumers.
type Publisher interface {
	// Publish publishes one serialized listing under the given site key
	Publish(siteName string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
