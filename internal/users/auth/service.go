// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/sec"
	"github.com/taibuivan/dashi/internal/platform/validate"
	"github.com/taibuivan/dashi/pkg/uuid"
)

// DefaultAccessTokenTTL is used when no TTL is configured.
const DefaultAccessTokenTTL = 15 * time.Minute

// # Contracts & Types

// TokenProvider signs access tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// Service implements account registration and login.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
	logger         *slog.Logger
	accessTTL      time.Duration
}

// NewService constructs a new auth [Service].
func NewService(userRepository UserRepository, tokenProvider TokenProvider, logger *slog.Logger, accessTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	return &Service{
		userRepository: userRepository,
		tokenProvider:  tokenProvider,
		logger:         logger,
		accessTTL:      accessTTL,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a new account with the member role.

Returns:
  - *User: Created entity
  - error: Validation, or Conflict when the username or email is taken
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.Email = strings.TrimSpace(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, 64).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		MaxBytes(FieldPassword, input.Password, sec.MaxPasswordBytes).
		MaxLen(FieldDisplayName, input.DisplayName, 128)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleMember,
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		return nil, err
	}

	service.logger.Info("account_registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// # Login Flow

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"user"`
}

/*
Login verifies credentials and issues an access token.

Description: login may be the email or the username. Every failure returns the
same Unauthorized error so accounts cannot be enumerated.
*/
func (service *Service) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	validator := &validate.Validator{}
	validator.Required(FieldLogin, login).Required(FieldPassword, password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.userRepository.FindByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	token, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role), service.accessTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth: sign access token: %w", err))
	}

	service.logger.Info("account_logged_in", slog.String("user_id", user.ID))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(service.accessTTL.Seconds()),
		User:        user,
	}, nil
}

// Me returns the caller's own account.
func (service *Service) Me(ctx context.Context, userID string) (*User, error) {
	return service.userRepository.FindByID(ctx, userID)
}
