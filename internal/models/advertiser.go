package models

// Advertiser owns campaigns. Kept minimal: billing and account management
// live in a separate system.
type Advertiser struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
}
