package moments

var roleHierarchy = map[UserRole]int{
	RoleGuest:  0,
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// CanRead every known role can read
func (r UserRole) CanRead() bool {
	return r.IsAtLeast(RoleGuest)
}

// CanCreate members and up can upload and create media
func (r UserRole) CanCreate() bool {
	return r.IsAtLeast(RoleMember)
}

// CanEdit members and up can edit
func (r UserRole) CanEdit() bool {
	return r.IsAtLeast(RoleMember)
}

// CanDelete members and up can delete
func (r UserRole) CanDelete() bool {
	return r.IsAtLeast(RoleMember)
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
