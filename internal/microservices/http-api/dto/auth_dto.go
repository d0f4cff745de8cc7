package dto

// Data Transfer Objects for the confirmation code flow

// EmailRequest: payload asking for a confirmation code
type EmailRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

// SignupResponse echoes the account the code was sent for
type SignupResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenRequest: payload exchanging a confirmation code for a token
type TokenRequest struct {
	Email            string `json:"email" binding:"required,email,max=254"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// TokenResponse carries the access token
type TokenResponse struct {
	Token string `json:"token"`
}
