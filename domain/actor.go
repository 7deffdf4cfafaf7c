package domain

// Actor identifies who performed an operation, as supplied by the request layer.
type Actor struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      Role   `json:"role,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// SystemActor is used for background work with no operator attached.
var SystemActor = Actor{Username: "system"}

func (a Actor) Can(perm Permission) bool {
	return a.Role.Can(perm)
}
