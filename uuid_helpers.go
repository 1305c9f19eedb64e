package moments

// HasUserUUID reports whether Session.GetUserUUID will succeed.
// Sessions validated against a JWK set carry the provider's subject instead.
func HasUserUUID(session Session) bool {
	if session == nil {
		return false
	}
	_, err := session.GetUserUUID()
	return err == nil
}
