package dto

import (
	"time"

	"github.com/pictolab/pictolab/internal/auth"
	"github.com/pictolab/pictolab/internal/domain"
	"github.com/pictolab/pictolab/internal/otp"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type RegisterResponse struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// TokenResponse is the issued pair shape shared by login, 2FA completion,
// and refresh.
type TokenResponse struct {
	TokenType    string `json:"tokenType"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpireIn     uint64 `json:"expireIn"`
}

// LoginResponse is a tagged union: Type is "Token" when the pair is present
// and "Code" when a second factor is pending.
type LoginResponse struct {
	Type string `json:"type"`

	TokenType    string `json:"tokenType,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`

	Message string `json:"message,omitempty"`

	ExpireIn uint64 `json:"expireIn"`
}

func NewTokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		TokenType:    pair.TokenType,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpireIn:     pair.ExpireIn,
	}
}

func NewLoginResponse(result *auth.LoginResult) LoginResponse {
	if result.Pair != nil {
		return LoginResponse{
			Type:         "Token",
			TokenType:    result.Pair.TokenType,
			AccessToken:  result.Pair.AccessToken,
			RefreshToken: result.Pair.RefreshToken,
			ExpireIn:     result.Pair.ExpireIn,
		}
	}
	return LoginResponse{
		Type:     "Code",
		Message:  result.Challenge.Message,
		ExpireIn: result.Challenge.ExpireIn,
	}
}

type ForgetPasswordResponse struct {
	Message  string `json:"message"`
	ExpireIn uint64 `json:"expireIn"`
}

type ProfileResponse struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	IsActive bool      `json:"isActive"`
	Is2FA    bool      `json:"is2fa"`
	CreateAt time.Time `json:"createAt"`
}

func NewProfileResponse(user *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
		IsActive: user.IsActive,
		Is2FA:    user.Is2FA,
		CreateAt: user.CreateAt,
	}
}

// PageResponse wraps a paginated listing.
type PageResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type ImageResponse struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	CreateAt     time.Time `json:"createAt"`
}

func NewImageResponse(img *domain.Image) ImageResponse {
	return ImageResponse{
		ID:           img.ID,
		Filename:     img.Filename,
		OriginalName: img.OriginalName,
		CreateAt:     img.CreateAt,
	}
}

type AnnotationResponse struct {
	ID      int64   `json:"id"`
	ImageID int64   `json:"imageId"`
	UserID  string  `json:"userId"`
	Label   string  `json:"label"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

func NewAnnotationResponse(a *domain.Annotation) AnnotationResponse {
	return AnnotationResponse{
		ID:      a.ID,
		ImageID: a.ImageID,
		UserID:  a.UserID.String(),
		Label:   a.Label,
		X:       a.X,
		Y:       a.Y,
		Width:   a.Width,
		Height:  a.Height,
	}
}

// AccessCodeResponse reports one live one-time code without revealing it.
type AccessCodeResponse struct {
	Purpose  string `json:"purpose"`
	ExpireIn uint64 `json:"expireIn"`
}

type AccessCodesResponse struct {
	Codes []AccessCodeResponse `json:"codes"`
}

func NewAccessCodesResponse(live []otp.Status) AccessCodesResponse {
	codes := make([]AccessCodeResponse, 0, len(live))
	for _, status := range live {
		codes = append(codes, AccessCodeResponse{
			Purpose:  string(status.Purpose),
			ExpireIn: uint64(status.ExpireIn / time.Second),
		})
	}
	return AccessCodesResponse{Codes: codes}
}

// ClaimsResponse echoes the verified claims of the presented access token.
type ClaimsResponse struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ServiceStatusResponse reports dependency health for the status endpoint.
type ServiceStatusResponse struct {
	DB    string `json:"db"`
	Redis string `json:"redis"`
	Email string `json:"email"`
}
