package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jimdaga/pomodo/internal/models"
)

// SaveRefreshToken records an issued refresh token.
func (s *Store) SaveRefreshToken(ctx context.Context, userID uint, jti string, expiresAt time.Time) error {
	token := models.RefreshToken{UserID: userID, JTI: jti, ExpiresAt: expiresAt.UTC()}
	if err := s.conn(ctx).Create(&token).Error; err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken deletes a live refresh token and reports who owned it.
// Unknown, already used or expired tokens are ErrNotFound.
func (s *Store) ConsumeRefreshToken(ctx context.Context, jti string, now time.Time) (uint, error) {
	var token models.RefreshToken
	if err := s.conn(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return 0, notFound(err, "refresh token")
	}

	res := s.conn(ctx).Where("id = ?", token.ID).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to consume refresh token: %w", res.Error)
	}
	// Lost a race with another refresh of the same token.
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("refresh token: %w", ErrNotFound)
	}
	if !token.ExpiresAt.After(now) {
		return 0, fmt.Errorf("refresh token expired: %w", ErrNotFound)
	}
	return token.UserID, nil
}

// RevokeRefreshToken deletes a refresh token; unknown tokens are ignored.
func (s *Store) RevokeRefreshToken(ctx context.Context, jti string) error {
	if err := s.conn(ctx).Where("jti = ?", jti).Delete(&models.RefreshToken{}).Error; err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// PurgeExpiredRefreshTokens deletes tokens that expired before now and
// returns how many were removed.
func (s *Store) PurgeExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := s.conn(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
