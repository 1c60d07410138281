package constants

const (
	User  = "user"
	Admin = "admin"
)

const (
	RoleManager = "manager"
	RoleViewer  = "viewer"
)
