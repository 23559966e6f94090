package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"portfolio/internal/domain/models"
	"portfolio/internal/lib/credentials"
	"portfolio/internal/lib/jwt"
	"portfolio/internal/lib/logger/sl"
	"portfolio/internal/repository"
	"portfolio/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotProtected       = errors.New("collection is not a client gallery")
)

// CollectionProvider is the part of the collection store access checks need.
type CollectionProvider interface {
	GetBySlug(ctx context.Context, slug string) (models.Collection, error)
	Update(ctx context.Context, id int64, upd models.CollectionUpdate) error
}

type Admin struct {
	Username     string
	PasswordHash string
}

type Auth struct {
	log         *slog.Logger
	admin       Admin
	secret      []byte
	tokenTTL    time.Duration
	accessTTL   time.Duration
	collections CollectionProvider
	grants      repository.AccessGrantRepository
	verifier    credentials.Verifier
}

func New(
	log *slog.Logger,
	admin Admin,
	secret []byte,
	tokenTTL, accessTTL time.Duration,
	collections CollectionProvider,
	grants repository.AccessGrantRepository,
	verifier credentials.Verifier,
) *Auth {
	return &Auth{
		log:         log,
		admin:       admin,
		secret:      secret,
		tokenTTL:    tokenTTL,
		accessTTL:   accessTTL,
		collections: collections,
		grants:      grants,
		verifier:    verifier,
	}
}

// Login checks the admin credentials and returns a signed admin token.
func (a *Auth) Login(ctx context.Context, username, password string) (string, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	log.Info("attempting to login admin")

	if a.admin.PasswordHash == "" || username != a.admin.Username {
		log.Warn("unknown admin user")

		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.admin.PasswordHash), []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := jwt.NewAdminToken(a.secret, username, a.tokenTTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin logged in successfully")

	return token, nil
}

// GrantGalleryAccess verifies a client-gallery password and issues an access
// token backed by a redis grant. Legacy password hashes are upgraded on the
// first successful check.
func (a *Auth) GrantGalleryAccess(ctx context.Context, slug, password string) (string, models.Collection, error) {
	const op = "auth.GrantGalleryAccess"

	log := a.log.With(
		slog.String("op", op),
		slog.String("slug", slug),
	)

	c, err := a.collections.GetBySlug(ctx, slug)
	if err != nil {
		return "", models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}
	if !c.Visible {
		return "", models.Collection{}, fmt.Errorf("%s: %w", op, storage.ErrCollectionNotFound)
	}
	if !c.PasswordProtected() {
		return "", models.Collection{}, fmt.Errorf("%s: %w", op, ErrNotProtected)
	}

	ok, err := a.verifier.Verify(c.PasswordHash, password)
	if err != nil {
		log.Error("failed to verify gallery password", sl.Err(err))

		return "", models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		log.Info("wrong gallery password")

		return "", models.Collection{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if a.verifier.NeedsRehash(c.PasswordHash) {
		a.upgradeHash(ctx, c.ID, password)
	}

	grantID := uuid.NewString()
	token, err := jwt.NewGalleryToken(a.secret, c.ID, grantID, a.accessTTL)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))

		return "", models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.grants.SaveGrant(ctx, c.ID, grantID, a.accessTTL); err != nil {
		log.Error("failed to save access grant", sl.Err(err))

		return "", models.Collection{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gallery access granted", slog.Int64("collection_id", c.ID))

	return token, c, nil
}

func (a *Auth) upgradeHash(ctx context.Context, collectionID int64, password string) {
	log := a.log.With(slog.Int64("collection_id", collectionID))

	hash, err := a.verifier.Hash(password)
	if err != nil {
		log.Error("failed to rehash gallery password", sl.Err(err))
		return
	}

	if err := a.collections.Update(ctx, collectionID, models.CollectionUpdate{PasswordHash: &hash}); err != nil {
		log.Error("failed to store upgraded password hash", sl.Err(err))
		return
	}

	log.Info("gallery password hash upgraded")
}

// HasGalleryAccess reports whether token grants access to the collection.
// Malformed, expired, foreign or revoked tokens all yield false.
func (a *Auth) HasGalleryAccess(ctx context.Context, collectionID int64, token string) (bool, error) {
	const op = "auth.HasGalleryAccess"

	if token == "" {
		return false, nil
	}

	claims, err := jwt.ParseGalleryToken(a.secret, token)
	if err != nil {
		a.log.Debug("rejected gallery token", slog.String("op", op), sl.Err(err))
		return false, nil
	}
	if claims.CollectionID != collectionID {
		return false, nil
	}

	ok, err := a.grants.HasGrant(ctx, collectionID, claims.ID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}
