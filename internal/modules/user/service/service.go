package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"anoa.com/studyhub/internal/entity"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	"anoa.com/studyhub/internal/modules/user/dto"
	"anoa.com/studyhub/internal/modules/user/repository"
	"anoa.com/studyhub/pkg/apperror"
	commonDto "anoa.com/studyhub/pkg/dto"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)

// SearchTokenIssuer hands out a per-user token for client side note search.
type SearchTokenIssuer interface {
	GenerateSearchToken(userID uint) (string, error)
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	secret   string
	tokenTTL time.Duration
	search   SearchTokenIssuer
	clock    func() time.Time
}

func NewAuthService(repo repository.UserRepository, cfg AuthConfig, search SearchTokenIssuer, clock func() time.Time) AuthService {
	secret := cfg.Secret
	if secret == "" {
		secret = "change-me"
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	if clock == nil {
		clock = time.Now
	}

	return &authService{
		repo:     repo,
		secret:   secret,
		tokenTTL: ttl,
		search:   search,
		clock:    clock,
	}
}

// Register creates a student account with the welcome coin grant.
func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hashed),
		Points:       0,
		Level:        entity.LevelForPoints(0),
		Coins:        entity.WelcomeCoins,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.New(http.StatusConflict, "email already registered", apperror.ErrConflict)
		}
		return nil, err
	}

	zap.L().Info("user registered", zap.Uint("user_id", user.ID))
	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	var searchToken string
	if s.search != nil {
		st, err := s.search.GenerateSearchToken(user.ID)
		if err != nil {
			zap.L().Warn("failed to generate search token", zap.Uint("user_id", user.ID), zap.Error(err))
		} else {
			searchToken = st
		}
	}

	user.PasswordHash = ""

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        user,
		SearchToken: searchToken,
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	now := s.clock()
	expiresAt := now.Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}

type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uint, input dto.UpdateProfileInput) (*dto.ProfileResponse, error)
	ChangePassword(ctx context.Context, userID uint, input dto.ChangePasswordInput) error
	ListUsers(ctx context.Context, query dto.UserListQuery) (*dto.PaginatedUsersResponse, error)
	DeleteUser(ctx context.Context, actorID, userID uint) error
}

type userService struct {
	repo  repository.UserRepository
	clock func() time.Time
}

func NewUserService(repo repository.UserRepository, clock func() time.Time) UserService {
	if clock == nil {
		clock = time.Now
	}
	return &userService{repo: repo, clock: clock}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*dto.ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toProfile(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, input dto.UpdateProfileInput) (*dto.ProfileResponse, error) {
	fields := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" {
		fields["name"] = name
	}
	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" {
		fields["email"] = email
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, userID, fields); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				return nil, apperror.New(http.StatusConflict, "email already registered", apperror.ErrConflict)
			}
			return nil, err
		}
	}

	return s.GetProfile(ctx, userID)
}

func (s *userService) ChangePassword(ctx context.Context, userID uint, input dto.ChangePasswordInput) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return apperror.New(http.StatusBadRequest, "current password is incorrect", apperror.ErrBadRequest)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.repo.Update(ctx, userID, map[string]any{"password_hash": string(hashed)})
}

func (s *userService) ListUsers(ctx context.Context, query dto.UserListQuery) (*dto.PaginatedUsersResponse, error) {
	query = query.Normalize()

	users, total, err := s.repo.FindAll(ctx, query.Limit, query.Offset())
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedUsersResponse{
		Data: users,
		Meta: commonDto.NewPaginationMeta(query, total),
	}, nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return apperror.New(http.StatusBadRequest, "admins cannot delete their own account", apperror.ErrBadRequest)
	}
	return s.repo.Delete(ctx, userID)
}

func (s *userService) toProfile(user *entity.User) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
		Gamification: gamificationService.BuildStatus(user, s.clock()),
	}
}
