package model

// Article is a reference page returned by a knowledge source
type Article struct {
	Title   string `json:"title"`             // Canonical page title (after redirects)
	Summary string `json:"summary,omitempty"` // Lead section as plain text
	URL     string `json:"url,omitempty"`     // Canonical page URL
	Exists  bool   `json:"exists"`            // False for missing or invalid titles
}

// Missing returns the article value for a title the source does not know
func Missing(title string) Article {
	return Article{Title: title}
}
