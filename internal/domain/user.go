package domain

import "time"

// Roles a user can hold in the marketplace.
const (
	RoleHost   = "HOST"
	RoleRenter = "RENTER"
	RoleDriver = "DRIVER"
)

type User struct {
	UserID           string     `json:"id" dynamodbav:"user_id"`
	Email            string     `json:"email" dynamodbav:"email"`
	Phone            *string    `json:"telefono" dynamodbav:"phone"`
	PasswordHash     string     `json:"-" dynamodbav:"password_hash"`
	Role             string     `json:"rol" dynamodbav:"role"`
	FirstName        string     `json:"nombre" dynamodbav:"first_name"`
	LastName         string     `json:"apellido" dynamodbav:"last_name"`
	PhotoURL         *string    `json:"fotoPerfil" dynamodbav:"photo_url"`
	TwoFactorEnabled bool       `json:"verificacion2Pasos" dynamodbav:"two_factor_enabled"`
	PhoneConfirmed   bool       `json:"telefonoConfirmado" dynamodbav:"phone_confirmed"`
	AuthProvider     string     `json:"proveedor,omitempty" dynamodbav:"auth_provider"` // "local" | "google"
	GoogleSub        string     `json:"-" dynamodbav:"google_sub"`
	Enable           bool       `json:"habilitado" dynamodbav:"enable"`
	DeletedAt        *time.Time `json:"eliminadoEn,omitempty" dynamodbav:"deleted_at"`
	CreatedAt        time.Time  `json:"creadoEn" dynamodbav:"created_at"`
	UpdatedAt        time.Time  `json:"actualizadoEn" dynamodbav:"updated_at"`
}

// FullName combines first and last name the way the JWT payload carries it.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"nombre" validate:"required"`
	LastName  string  `json:"apellido" validate:"required"`
	Phone     *string `json:"telefono"`
	Role      string  `json:"rol" validate:"omitempty,oneof=HOST RENTER DRIVER"`
}

type UpdateUserRequest struct {
	FirstName        *string `json:"nombre"`
	LastName         *string `json:"apellido"`
	Phone            *string `json:"telefono"`
	TwoFactorEnabled *bool   `json:"verificacion2Pasos"`
}
