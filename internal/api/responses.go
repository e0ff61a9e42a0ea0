package api

// AuthResponse is returned by signup, login, and OAuth callback.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
	UserID  string `json:"userId"`
}

// SignedURLResponse carries a transient download URL.
type SignedURLResponse struct {
	SignedURL string `json:"signedUrl"`
}

// ErrorResponse is the JSON error envelope. Details carries raw upstream
// error text and is populated only outside production.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
