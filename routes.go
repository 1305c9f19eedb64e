package moments

import "strings"

// Application routes
const (
	Home   = "/"
	SignIn = "/sign-in"
	SignUp = "/sign-up"

	studioPattern = "/studio/:id"
)

// Studio returns the studio route for a media record
func Studio(id string) string {
	return strings.Replace(studioPattern, ":id", id, 1)
}

// StudioPattern is the route pattern Studio expands
func StudioPattern() string {
	return studioPattern
}
