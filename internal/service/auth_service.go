package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Seller    SellerResponse `json:"seller"`
}

// SellerResponse is a Seller without credentials.
type SellerResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
	Role  string    `json:"role"`
}

// AuthService issues sessions. Sessions carry the seller id, role and display name.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Me(ctx context.Context, sellerID uuid.UUID) (*SellerResponse, error)
}

type authService struct {
	repo   repository.SellerRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(repo repository.SellerRepository, secret []byte, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authService{repo: repo, secret: secret, ttl: ttl, now: time.Now}
}

func mapSeller(s *model.Seller) SellerResponse {
	return SellerResponse{ID: s.ID, Name: s.Name, Email: s.Email, Phone: s.Phone, Role: s.Role}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	seller, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !seller.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(seller.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  seller.ID.String(),
		"role": seller.Role,
		"name": seller.Name,
		"exp":  expiresAt.Unix(),
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenResponse{Token: tokenString, ExpiresAt: expiresAt, Seller: mapSeller(seller)}, nil
}

func (s *authService) Me(ctx context.Context, sellerID uuid.UUID) (*SellerResponse, error) {
	seller, err := s.repo.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	res := mapSeller(seller)
	return &res, nil
}
