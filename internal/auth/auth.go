package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bilimbagdar/internal/config"
	"bilimbagdar/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// legacyHashRe matches the unsalted hex SHA-256 digests written by the
// original spreadsheet deployment
var legacyHashRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// JWTClaims represents the claims in a JWT token
type JWTClaims struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service handles authentication operations
type Service struct {
	privateKey    *ecdsa.PrivateKey
	publicKey     *ecdsa.PublicKey
	jwtExpiration time.Duration
}

// NewService creates a new authentication service
func NewService(cfg *config.JWTConfig) *Service {
	privateKey, publicKey := loadOrGenerateKeys(cfg.Secret)
	return &Service{
		privateKey:    privateKey,
		publicKey:     publicKey,
		jwtExpiration: cfg.Expiration,
	}
}

// HashPassword hashes a password using bcrypt. New accounts always get
// bcrypt; the unsalted SHA-256 scheme is kept for verification only.
func (s *Service) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against a stored hash. Rows imported
// from the original spreadsheet hold unsalted hex SHA-256 digests; those
// are still accepted so existing accounts keep working.
func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if legacyHashRe.MatchString(hashedPassword) {
		digest := LegacySHA256(password)
		if subtle.ConstantTimeCompare([]byte(digest), []byte(hashedPassword)) == 1 {
			return nil
		}
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// LegacySHA256 computes the hex digest used by the original deployment
func LegacySHA256(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// GenerateToken generates a JWT access token for a user
func (s *Service) GenerateToken(user *models.User) (string, error) {
	claims := JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tokenString, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, ErrExpiredToken
	}

	return claims, nil
}

// loadOrGenerateKeys loads ECDSA keys from secret or generates new ones
func loadOrGenerateKeys(secret string) (*ecdsa.PrivateKey, *ecdsa.PublicKey) {
	if block, _ := pem.Decode([]byte(secret)); block != nil {
		if privateKey, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
			return privateKey, &privateKey.PublicKey
		}
	}

	// Generate new key pair for development
	// In production, JWT_SECRET should hold a PEM-encoded EC private key
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ECDSA key: %v", err))
	}

	return privateKey, &privateKey.PublicKey
}
