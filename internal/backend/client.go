package backend

// Client is the handle to the backend shared by every page and command.
// It is safe for concurrent use.
type Client struct {
	Tables
	Auth *Auth

	configured bool
}

// NewClient creates a Client from its table and auth halves
func NewClient(tables Tables, auth *Auth, configured bool) *Client {
	return &Client{
		Tables:     tables,
		Auth:       auth,
		configured: configured,
	}
}

// Configured reports whether the client points at a real backend
func (c *Client) Configured() bool {
	return c.configured
}
