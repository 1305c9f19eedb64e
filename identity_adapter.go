package moments

// UserIdentity adapts a User into the Identity interface for token generation.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

func (u UserIdentity) Username() string {
	if u.user == nil {
		return ""
	}
	return u.user.Username
}

func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

func (u UserIdentity) Role() string {
	if u.user == nil {
		return ""
	}
	return string(u.user.Role)
}

// Status returns the user's lifecycle status.
func (u UserIdentity) Status() UserStatus {
	if u.user == nil {
		return ""
	}
	return u.user.Status
}

var _ Identity = UserIdentity{}

// sessionIdentity exposes a session issued by an external identity
// provider, there is no local user record behind it.
type sessionIdentity struct {
	session Session
}

func (s sessionIdentity) ID() string {
	return s.session.GetUserID()
}

func (s sessionIdentity) Username() string {
	return s.session.GetUserID()
}

func (s sessionIdentity) Email() string {
	if email, ok := s.session.GetData()["email"].(string); ok {
		return email
	}
	return ""
}

func (s sessionIdentity) Role() string {
	if role, ok := s.session.GetData()["role"].(string); ok && role != "" {
		return role
	}
	return string(RoleMember)
}

var _ Identity = sessionIdentity{}
