package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/immxrtalbeast/collabdocs/internal/domain"
	"github.com/immxrtalbeast/collabdocs/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	users    repository.UserRepository
	log      *slog.Logger
	secret   []byte
	tokenTTL time.Duration
}

func NewUserService(users repository.UserRepository, log *slog.Logger, secret string, tokenTTL time.Duration) *UserService {
	if log == nil {
		log = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &UserService{
		users:    users,
		log:      log,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates the account if the name is unknown and logs the user in
// either way, matching the upstream register-or-login behavior.
func (s *UserService) Register(ctx context.Context, name string, password string) (*domain.User, string, error) {
	const op = "service.user.register"
	log := s.log.With(slog.String("op", op), slog.String("name", name))

	if name == "" {
		return nil, "", errors.New("name is required")
	}
	if password == "" {
		return nil, "", errors.New("password is required")
	}

	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", err
		}
		user = domain.NewUser(name, string(hash))
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserNameExists) {
				// Lost a race with a concurrent register for the same name.
				user, err = s.users.GetByName(ctx, name)
				if err != nil {
					return nil, "", err
				}
			} else {
				return nil, "", err
			}
		}
		log.Info("user registered", slog.String("user_id", user.ID))
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) Login(ctx context.Context, name string, password string) (*domain.User, string, error) {
	const op = "service.user.login"
	log := s.log.With(slog.String("op", op), slog.String("name", name))

	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn("wrong password")
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) ListUserNames(ctx context.Context, ids []string) ([]*domain.User, error) {
	return s.users.ListByIDs(ctx, ids)
}

// ParseToken validates a token and extracts the identity claims.
func (s *UserService) ParseToken(token string) (string, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidCredentials
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidCredentials
	}
	userID, _ := claims["uid"].(string)
	name, _ := claims["name"].(string)
	if userID == "" {
		return "", "", ErrInvalidCredentials
	}
	return userID, name, nil
}

func (s *UserService) issueToken(user *domain.User) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  user.ID,
		"name": user.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}
