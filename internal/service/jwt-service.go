package service

import (
	"fmt"
	"study_admin_service/internal/config"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims
	AdminUserID string `json:"adminUserId"`
	Email       string `json:"email"`
}

type JWTService struct{}

func NewJWTService() *JWTService {
	return &JWTService{}
}

func (jwt_s *JWTService) GenerateNewToken(adminUserID, email string) (string, error) {
	claim := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(config.ServiceConfig.JWTExpired) * time.Hour)),
			Issuer:    "study-admin-service",
		},
		AdminUserID: adminUserID,
		Email:       email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	tokenString, err := token.SignedString([]byte(config.ServiceConfig.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("error generate token string: %s", err)
	}
	return tokenString, nil
}

// ValidateToken resolves a bearer token to the acting admin user id.
func (jwt_s *JWTService) ValidateToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.ServiceConfig.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("error parsing token: %s", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return claims.AdminUserID, nil
}
