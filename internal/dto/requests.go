// Package dto defines the JSON wire shapes of the HTTP API and their
// validation. Field names are camelCase throughout.
package dto

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
)

const (
	usernameMin = 3
	usernameMax = 25
	passwordMin = 8
	codeMin     = 5
	refreshMin  = 30
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	if err := validUsername(r.Username); err != nil {
		return err
	}
	if err := validEmail(r.Email); err != nil {
		return err
	}
	return validPassword(r.Password)
}

type ActivateRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

func (r *ActivateRequest) Validate() error {
	if _, err := uuid.Parse(r.UserID); err != nil {
		return apperr.New(apperr.KindInvalidInput, "userId must be a UUID")
	}
	return validCode(r.Code)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if err := validEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return apperr.New(apperr.KindInvalidInput, "password is required")
	}
	return nil
}

type Login2FARequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

func (r *Login2FARequest) Validate() error {
	if _, err := uuid.Parse(r.UserID); err != nil {
		return apperr.New(apperr.KindInvalidInput, "userId must be a UUID")
	}
	return validCode(r.Code)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *RefreshRequest) Validate() error {
	if len(r.RefreshToken) < refreshMin {
		return apperr.New(apperr.KindInvalidInput, "refreshToken is malformed")
	}
	return nil
}

type ForgetPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgetPasswordRequest) Validate() error {
	return validEmail(r.Email)
}

type ResetPasswordRequest struct {
	UserID      string `json:"userId"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (r *ResetPasswordRequest) Validate() error {
	if _, err := uuid.Parse(r.UserID); err != nil {
		return apperr.New(apperr.KindInvalidInput, "userId must be a UUID")
	}
	if err := validCode(r.Code); err != nil {
		return err
	}
	return validPassword(r.NewPassword)
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	Is2FA    bool   `json:"is2fa"`
}

func (r *UpdateProfileRequest) Validate() error {
	return validUsername(r.Username)
}

type SaveAnnotationsRequest struct {
	ImageID     int64             `json:"imageId"`
	Annotations []AnnotationInput `json:"annotations"`
}

type AnnotationInput struct {
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r *SaveAnnotationsRequest) Validate() error {
	if r.ImageID <= 0 {
		return apperr.New(apperr.KindInvalidInput, "imageId is required")
	}
	for i := range r.Annotations {
		a := &r.Annotations[i]
		if strings.TrimSpace(a.Label) == "" {
			return apperr.New(apperr.KindInvalidInput, "annotation label is required")
		}
		if a.Width <= 0 || a.Height <= 0 {
			return apperr.New(apperr.KindInvalidInput, "annotation size must be positive")
		}
	}
	return nil
}

func validUsername(username string) error {
	if len(username) < usernameMin || len(username) > usernameMax {
		return apperr.Newf(apperr.KindInvalidInput, "username must be %d-%d characters", usernameMin, usernameMax)
	}
	for _, c := range username {
		ok := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
		if !ok {
			return apperr.New(apperr.KindInvalidInput, "username may contain letters, digits, '_' and '-'")
		}
	}
	return nil
}

func validEmail(email string) error {
	at := strings.IndexByte(email, '@')
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return apperr.New(apperr.KindInvalidInput, "email is malformed")
	}
	return nil
}

func validPassword(password string) error {
	if len(password) < passwordMin {
		return apperr.Newf(apperr.KindInvalidInput, "password must be at least %d characters", passwordMin)
	}
	return nil
}

func validCode(code string) error {
	if len(code) < codeMin {
		return apperr.New(apperr.KindInvalidInput, "code is malformed")
	}
	return nil
}
