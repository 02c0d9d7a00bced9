package siteserver

import "strings"

// Document is one section's publishable content, stored as indented JSON in
// the remote repository and fully replaced on every save.
type Document struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Content  string   `json:"content"`
	Image    *string  `json:"image"`
	Meta     string   `json:"meta"`
	Members  []Member `json:"members,omitempty"`
}

// Member is one entry on the teams page. Slice order is display order and is
// preserved across edits.
type Member struct {
	Name  string  `json:"name"`
	Image *string `json:"image"`
	ID    int     `json:"id"`
}

// sectionNames lists every content section the API serves, in the order used
// for error messages.
var sectionNames = []string{"blogs", "events", "newsletter", "teams"}

var validSections = map[string]struct{}{
	"blogs":      {},
	"events":     {},
	"newsletter": {},
	"teams":      {},
}

// normalizeSection lowercases the requested section name and reports whether
// it is on the allow-list. Anything else is rejected before the cache or the
// store is touched.
func normalizeSection(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	_, ok := validSections[s]
	return s, ok
}

// missingFields returns the required document fields that are empty, in a
// stable order for error messages.
func missingFields(doc Document) []string {
	var missing []string
	if strings.TrimSpace(doc.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(doc.Content) == "" {
		missing = append(missing, "content")
	}
	return missing
}
