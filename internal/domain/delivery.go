package domain

// Prompt is the fixed system/user pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// RenderedDigest is the final email document.
type RenderedDigest struct {
	Subject string
	Body    string
}

// DeliveryResult describes what the Sender did with a rendered digest.
type DeliveryResult struct {
	Preview    bool
	Subject    string
	Body       string
	Path       string
	DeliveryID string
}
