package models

// LoginResult is what POST /empresas/login yields once the envelope is gone.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Company      Company
}
