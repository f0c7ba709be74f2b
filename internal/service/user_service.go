package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/audit"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/domain"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/internal/repository"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/jwt"
	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/log"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type userService struct {
	repo   repository.UserRepository
	tokens *jwt.Manager
}

func NewUserService(repo repository.UserRepository, tokens *jwt.Manager) UserService {
	return &userService{repo: repo, tokens: tokens}
}

func (s *userService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrEmailExists) {
			l.Error().Err(err).Msg("failed to create user")
		}
		return nil, err
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Email, user.Name)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate token after signup")
		return nil, err
	}

	audit.Log(ctx, audit.ActionSignup, user.ID, "user registered")

	return &domain.AuthResponse{
		User:      user.ToResponse(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *userService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", req.Email, "login failed: user not found")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, user.ID, req.Email, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Email, user.Name)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate token after login")
		return nil, err
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return &domain.AuthResponse{
		User:      user.ToResponse(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
