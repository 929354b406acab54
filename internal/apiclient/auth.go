package apiclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BruksfildServices01/clientflow/internal/models"
)

type AuthService struct {
	c *Client
}

func (c *Client) Auth() *AuthService { return &AuthService{c: c} }

type loginRequest struct {
	Email    string `json:"email_login"`
	Password string `json:"senha"`
}

type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
	Company      json.RawMessage `json:"empresa"`
}

func (t tokenResponse) access() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.Token
}

// Login posts the credentials. The company comes from the "empresa" member
// when present, else from the payload itself.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	var raw json.RawMessage
	// a 401 here means bad credentials, not an expired session
	if err := s.c.Post(WithoutInterception(ctx), "/empresas/login", loginRequest{Email: email, Password: password}, &raw); err != nil {
		return nil, err
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}

	companyJSON := []byte(tok.Company)
	if len(companyJSON) == 0 || string(companyJSON) == "null" {
		companyJSON = raw
	}
	var company models.Company
	if err := json.Unmarshal(companyJSON, &company); err != nil {
		return nil, fmt.Errorf("decode login company: %w", err)
	}

	return &models.LoginResult{
		AccessToken:  tok.access(),
		RefreshToken: tok.RefreshToken,
		Company:      company,
	}, nil
}

// Logout revokes the token remotely. A 401 is not intercepted.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.c.Post(WithoutInterception(ctx), "/empresas/logout", nil, nil)
}

// Refresh trades a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	var tok tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := s.c.Post(WithoutInterception(ctx), "/empresas/refresh", body, &tok); err != nil {
		return "", "", err
	}
	return tok.access(), tok.RefreshToken, nil
}
