package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/db/models"
)

// CollectionAvatar holds the single profile picture of a user.
const CollectionAvatar = "avatar"

// Conversions is the directory holding generated conversions next to the original.
const Conversions = "conversions"

// AvatarCacheControl is sent with served avatars.
const AvatarCacheControl = "public, max-age=604800"

// File is an opened stored file.
type File struct {
	io.ReadCloser
	ContentType string
}

// Service manages user media.
type Service struct {
	db    *gorm.DB
	disks *Manager
}

// NewService creates a media Service.
func NewService(db *gorm.DB, disks *Manager) *Service {
	return &Service{db: db, disks: disks}
}

// Dir returns the directory of a user's collection.
func Dir(userID uint64, collection string) string {
	return fmt.Sprintf("%d/%s", userID, collection)
}

// OriginalPath returns the path of the uploaded file.
func OriginalPath(m *models.Media) string {
	return path.Join(Dir(m.UserID, m.Collection), m.FileName)
}

// ThumbPath returns the path of the thumb conversion.
func ThumbPath(m *models.Media) string {
	base := strings.TrimSuffix(m.FileName, path.Ext(m.FileName))

	return path.Join(Dir(m.UserID, m.Collection), Conversions, base+"-thumb.jpg")
}

// AvatarURL returns the avatar address of a user updated at updatedAt.
func AvatarURL(userID uint64, updatedAt time.Time) string {
	return fmt.Sprintf("/avatars/%d?v=%d", userID, updatedAt.Unix())
}

func (s *Service) avatar(ctx context.Context, userID uint64) (*models.Media, error) {
	var m models.Media

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ?", userID, CollectionAvatar).
		Order("id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMediaNotFound
	}

	if err != nil {
		return nil, err
	}

	return &m, nil
}

// HasAvatar reports whether the user uploaded an avatar.
func (s *Service) HasAvatar(ctx context.Context, userID uint64) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.Media{}).
		Where("user_id = ? AND collection = ?", userID, CollectionAvatar).
		Count(&count).Error

	return count > 0, err
}

// AvatarURLFor returns the avatar address of u, or "" without an avatar.
func (s *Service) AvatarURLFor(ctx context.Context, u *models.User) (string, error) {
	ok, err := s.HasAvatar(ctx, u.ID)
	if err != nil || !ok {
		return "", err
	}

	return AvatarURL(u.ID, u.UpdatedAt), nil
}

// AddAvatar stores data as the avatar of userID, replacing the previous one.
func (s *Service) AddAvatar(ctx context.Context, userID uint64, name string, data []byte) (*models.Media, error) {
	contentType, ext, err := DetectImage(data)
	if err != nil {
		return nil, err
	}

	disk := s.disks.Default()
	m := &models.Media{
		UserID:     userID,
		Collection: CollectionAvatar,
		Name:       strings.TrimSuffix(path.Base(name), path.Ext(name)),
		FileName:   uuid.NewString() + ext,
		MimeType:   contentType,
		Disk:       disk.Name(),
		Size:       int64(len(data)),
	}

	if err = disk.Put(ctx, OriginalPath(m), bytes.NewReader(data), m.Size, contentType); err != nil {
		return nil, err
	}

	thumb, err := Thumb(data)
	if err != nil {
		log.Warn().Err(err).Uint64("user_id", userID).Msg("failed to convert avatar")
	} else if err = disk.Put(ctx, ThumbPath(m), bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		log.Warn().Err(err).Uint64("user_id", userID).Msg("failed to store avatar thumb")
	} else {
		m.HasThumb = true
	}

	var previous []models.Media

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND collection = ?", userID, CollectionAvatar).Find(&previous).Error; err != nil {
			return err
		}

		if len(previous) > 0 {
			if err := tx.Delete(&previous).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(m).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{ID: userID}).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		_ = disk.Delete(ctx, OriginalPath(m), ThumbPath(m))

		return nil, err
	}

	s.removeFiles(ctx, previous)

	return m, nil
}

// OpenAvatar opens the avatar thumb of userID, or the original when no thumb exists.
func (s *Service) OpenAvatar(ctx context.Context, userID uint64) (*File, error) {
	m, err := s.avatar(ctx, userID)
	if err != nil {
		return nil, err
	}

	disk, err := s.disks.Get(m.Disk)
	if err != nil {
		return nil, err
	}

	if m.HasThumb {
		r, err := disk.Open(ctx, ThumbPath(m))
		if err == nil {
			return &File{ReadCloser: r, ContentType: "image/jpeg"}, nil
		}

		if !errors.Is(err, ErrMediaNotFound) {
			return nil, err
		}
	}

	r, err := disk.Open(ctx, OriginalPath(m))
	if err != nil {
		return nil, err
	}

	return &File{ReadCloser: r, ContentType: m.MimeType}, nil
}

// DeleteAvatar removes the avatar of userID.
func (s *Service) DeleteAvatar(ctx context.Context, userID uint64) error {
	var rows []models.Media

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND collection = ?", userID, CollectionAvatar).Find(&rows).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return ErrMediaNotFound
		}

		if err := tx.Delete(&rows).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{ID: userID}).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return err
	}

	s.removeFiles(ctx, rows)

	return nil
}

func (s *Service) removeFiles(ctx context.Context, rows []models.Media) {
	for i := range rows {
		m := &rows[i]

		disk, err := s.disks.Get(m.Disk)
		if err != nil {
			log.Warn().Err(err).Str("disk", m.Disk).Uint64("media_id", m.ID).Msg("cannot remove media files")
			continue
		}

		if err = disk.Delete(ctx, OriginalPath(m), ThumbPath(m)); err != nil {
			log.Warn().Err(err).Uint64("media_id", m.ID).Msg("failed to remove media files")
		}
	}
}
