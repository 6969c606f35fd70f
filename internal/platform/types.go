package platform

// Identity is the bot's own account, resolved once at startup.
type Identity struct {
	ID     string
	Handle string
}

// Mention is one status that mentions the bot. IDs are the platform's
// decimal sort-order identifiers; their order defines processing order.
type Mention struct {
	ID        string
	Text      string
	CreatedAt string
	User      string
}

// IDLess compares two decimal status ids numerically without parsing them
// into integers (ids exceed int64 on this platform).
func IDLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
