package siteserver

// defaultDocument returns the built-in copy for a section, used when the
// remote file does not exist yet or cannot be read. Returned by value so
// callers can never mutate the defaults.
func defaultDocument(section string) Document {
	switch section {
	case "blogs":
		return Document{
			Title:    "Our Blog",
			Subtitle: "Latest insights and updates",
			Content:  "Welcome to our blog where we share the latest insights, industry trends, and company updates.",
			Meta:     "Updated regularly with fresh content",
		}
	case "events":
		return Document{
			Title:    "Upcoming Events",
			Subtitle: "Join us at our next event",
			Content:  "We regularly host events, workshops, and conferences. Stay tuned for upcoming opportunities to connect and learn.",
			Meta:     "Events are updated monthly",
		}
	case "newsletter":
		return Document{
			Title:    "Newsletter & News",
			Subtitle: "Stay informed with our latest news",
			Content:  "Subscribe to our newsletter to receive the latest company news, industry updates, and valuable insights.",
			Meta:     "Published monthly",
		}
	case "teams":
		return Document{
			Title:    "Our Team",
			Subtitle: "Meet the people behind our success",
			Content:  "Our diverse team of professionals brings together expertise from various fields to serve our clients with excellence.",
			Meta:     "Team profiles updated quarterly",
			Members:  []Member{},
		}
	}
	return Document{
		Title:    "Page Not Found",
		Subtitle: "Content not available",
		Content:  "The requested content is not available.",
		Meta:     "Error loading content",
	}
}
