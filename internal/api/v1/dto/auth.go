package dto

type RegisterRequestDTO struct {
	Username string `json:"username" minLength:"3" maxLength:"50"`
	Email    string `json:"email"`
	Password string `json:"password" minLength:"6"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponseDTO struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Token   string  `json:"token"`
	User    UserDTO `json:"user"`
}
