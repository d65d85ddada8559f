package domain

// User is a generated account record.
type User struct {
	BaseRecord
	Username  string   `json:"username"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Status    []string `json:"status"`
	Role      []string `json:"role"`
	Age       int      `json:"age"`
}

// User tag values.
var (
	UserStatuses = []string{"active", "inactive", "invited", "suspended"}
	UserRoles    = []string{"superadmin", "admin", "manager", "cashier"}
)

// FullName returns the first and last name separated by a space.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
