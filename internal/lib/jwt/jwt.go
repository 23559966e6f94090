package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin   = "admin"
	RoleGallery = "gallery"
)

var ErrInvalidToken = errors.New("invalid token")

// AdminClaims are carried by tokens issued on admin login.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GalleryClaims grant read access to one client gallery. The token id is
// the grant id recorded in redis.
type GalleryClaims struct {
	Role         string `json:"role"`
	CollectionID int64  `json:"cid"`
	jwt.RegisteredClaims
}

func NewAdminToken(secret []byte, username string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func NewGalleryToken(secret []byte, collectionID int64, grantID string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := GalleryClaims{
		Role:         RoleGallery,
		CollectionID: collectionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        grantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseAdminToken(secret []byte, token string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := parse(secret, token, claims); err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, fmt.Errorf("%w: not an admin token", ErrInvalidToken)
	}
	return claims, nil
}

func ParseGalleryToken(secret []byte, token string) (*GalleryClaims, error) {
	claims := &GalleryClaims{}
	if err := parse(secret, token, claims); err != nil {
		return nil, err
	}
	if claims.Role != RoleGallery || claims.ID == "" {
		return nil, fmt.Errorf("%w: not a gallery token", ErrInvalidToken)
	}
	return claims, nil
}

func parse(secret []byte, token string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
