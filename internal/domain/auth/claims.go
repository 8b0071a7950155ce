package auth

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleWorker     Role = "worker"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleWorker:
		return true
	}
	return false
}

// CanManagePayroll reports whether the role may run recalculations and toggle automation.
func (r Role) CanManagePayroll() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

// Claims is the identity carried by an access token.
type Claims struct {
	UserID     string
	Name       string
	EmployeeID *string
	Role       Role
}

// ClaimsFromMap reads Claims from a decoded token claim set.
func ClaimsFromMap(m map[string]interface{}) (Claims, error) {
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return Claims{}, ErrInvalidToken
	}
	role, _ := m["role"].(string)
	if !Role(role).IsValid() {
		return Claims{}, ErrInvalidToken
	}

	c := Claims{
		UserID: userID,
		Role:   Role(role),
	}
	c.Name, _ = m["name"].(string)
	if employeeID, ok := m["employee_id"].(string); ok && employeeID != "" {
		c.EmployeeID = &employeeID
	}
	return c, nil
}
