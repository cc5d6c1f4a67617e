package database

// Repository provides typed access to the app's Supabase tables.
type Repository struct {
	client *Client
}

// NewRepository creates a repository over the given client.
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}
