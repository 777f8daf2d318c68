package domain

// UnknownUserName is shown when a posting carries no owner.
const UnknownUserName = "Usuario Desconocido"

// User is a registered account as returned by the backend.
type User struct {
	ID       ID     `json:"id,omitempty"`
	FullName string `json:"nombreCompleto"`
	Email    string `json:"correoElectronico"`
}

// DisplayName returns the full name, or UnknownUserName when it is empty.
func (u *User) DisplayName() string {
	if u == nil || u.FullName == "" {
		return UnknownUserName
	}
	return u.FullName
}
