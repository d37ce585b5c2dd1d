package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

// GoogleProfile carries the verified claims of a Google ID token.
type GoogleProfile struct {
	Subject     string
	Email       string
	DisplayName string
	AvatarURL   string
}

// GoogleTokenVerifier verifies a raw Google ID token for a fixed audience.
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (GoogleProfile, error)
}

var (
	// ErrGoogleInvalidToken indicates the token failed signature or audience checks.
	ErrGoogleInvalidToken = errors.New("identity.google.invalid_token")
	// ErrGoogleInvalidIssuer indicates the token was not issued by Google.
	ErrGoogleInvalidIssuer = errors.New("identity.google.invalid_issuer")
	// ErrGoogleUnverifiedIdentity indicates the token has no verified email identity.
	ErrGoogleUnverifiedIdentity = errors.New("identity.google.unverified_identity")
)

type googleTokenVerifier struct {
	audience string
}

// NewGoogleTokenVerifier constructs a verifier bound to the web client ID audience.
func NewGoogleTokenVerifier(audience string) GoogleTokenVerifier {
	return &googleTokenVerifier{audience: audience}
}

func (verifier *googleTokenVerifier) Verify(ctx context.Context, rawIDToken string) (GoogleProfile, error) {
	validator, validatorErr := idtoken.NewValidator(ctx)
	if validatorErr != nil {
		return GoogleProfile{}, fmt.Errorf("identity.google.validator_init: %w", validatorErr)
	}
	payload, validateErr := validator.Validate(ctx, rawIDToken, verifier.audience)
	if validateErr != nil {
		return GoogleProfile{}, fmt.Errorf("%w: %v", ErrGoogleInvalidToken, validateErr)
	}
	issuerValue, okIssuer := payload.Claims["iss"].(string)
	if !okIssuer || (issuerValue != "https://accounts.google.com" && issuerValue != "accounts.google.com") {
		return GoogleProfile{}, ErrGoogleInvalidIssuer
	}
	subject, _ := payload.Claims["sub"].(string)
	email, _ := payload.Claims["email"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)
	displayName, _ := payload.Claims["name"].(string)
	avatarURL, _ := payload.Claims["picture"].(string)

	if strings.TrimSpace(subject) == "" || strings.TrimSpace(email) == "" || !emailVerified {
		return GoogleProfile{}, ErrGoogleUnverifiedIdentity
	}
	return GoogleProfile{
		Subject:     subject,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}, nil
}
