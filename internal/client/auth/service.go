package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/validation"
	pkgapi "github.com/iudanet/offlinedesk/pkg/api"
)

// Service предоставляет функции авторизации и хранит токен в локальном хранилище
type Service struct {
	apiClient APIClient
	store     Store
	logger    *slog.Logger
	now       func() time.Time
}

var _ TokenSource = (*Service)(nil)

// NewService создает новый сервис авторизации
func NewService(apiClient APIClient, store Store, logger *slog.Logger) *Service {
	return &Service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Register регистрирует нового пользователя
func (s *Service) Register(ctx context.Context, username, password, role string) (string, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return "", fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}

	return resp.UserID, nil
}

// Login выполняет аутентификацию и сохраняет токен
func (s *Service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if password == "" {
		return nil, fmt.Errorf("invalid password: password cannot be empty")
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	authData := &storage.AuthData{
		Username:    username,
		UserID:      resp.UserID,
		AccessToken: resp.AccessToken,
		ExpiresAt:   s.expiresAt(resp),
	}

	if err := s.store.SaveAuth(ctx, authData); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	return authData, nil
}

// expiresAt берет exp из JWT, иначе считает по expires_in
func (s *Service) expiresAt(resp *pkgapi.TokenResponse) int64 {
	// Подпись проверяет сервер, клиенту нужен только exp
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Unix()
		}
	} else {
		s.logger.Debug("Access token is not a JWT", "error", err)
	}

	if resp.ExpiresIn > 0 {
		return s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix()
	}
	return 0
}

// Token returns the stored access token, or "" when there is none or it
// has expired.
func (s *Service) Token(ctx context.Context) (string, error) {
	authData, err := s.store.GetAuth(ctx)
	if errors.Is(err, storage.ErrAuthNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get auth data: %w", err)
	}

	if authData.Expired(s.now().Unix()) {
		s.logger.Debug("Stored access token has expired", "username", authData.Username)
		return "", nil
	}
	return authData.AccessToken, nil
}

// Current returns the stored auth data or storage.ErrAuthNotFound
func (s *Service) Current(ctx context.Context) (*storage.AuthData, error) {
	return s.store.GetAuth(ctx)
}

// Logout удаляет токен и все закешированные данные вместе с очередью
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}

	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}

	return nil
}
