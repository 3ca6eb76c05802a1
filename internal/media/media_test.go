package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/testutil"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func setupMedia(t *testing.T) (*Service, *models.User, string) {
	t.Helper()

	db := testutil.DB(t)
	user := &models.User{Name: "Test User", Email: "test@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	root := t.TempDir()
	svc := NewService(db, NewManager(NewLocalDisk(root), ""))

	return svc, user, root
}

func TestDetectImage(t *testing.T) {
	contentType, ext, err := DetectImage(pngImage(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	_, _, err = DetectImage([]byte("%PDF-1.4 not an image"))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestThumb(t *testing.T) {
	out, err := Thumb(pngImage(t, 640, 300))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, ThumbWidth, img.Bounds().Dx())
	assert.Equal(t, ThumbHeight, img.Bounds().Dy())

	contentType, _, err := DetectImage(out)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestAddAvatar(t *testing.T) {
	ctx := context.Background()
	svc, user, root := setupMedia(t)

	first, err := svc.AddAvatar(ctx, user.ID, "me.png", pngImage(t, 300, 300))
	require.NoError(t, err)
	assert.Equal(t, DiskLocal, first.Disk)
	assert.Equal(t, "me", first.Name)
	assert.True(t, first.HasThumb)

	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(OriginalPath(first))))
	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(ThumbPath(first))))
	assert.Contains(t, ThumbPath(first), "/avatar/conversions/")

	f, err := svc.OpenAvatar(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", f.ContentType)
	require.NoError(t, f.Close())

	second, err := svc.AddAvatar(ctx, user.ID, "new.png", pngImage(t, 50, 50))
	require.NoError(t, err)

	var count int64
	require.NoError(t, svc.db.Model(&models.Media{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(OriginalPath(first))))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(OriginalPath(second))))

	url, err := svc.AvatarURLFor(ctx, user)
	require.NoError(t, err)
	assert.Contains(t, url, "/avatars/")
}

func TestAddAvatar_RejectsNonImage(t *testing.T) {
	svc, user, _ := setupMedia(t)

	_, err := svc.AddAvatar(context.Background(), user.ID, "doc.txt", []byte("hello"))
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestOpenAvatar_FallsBackToOriginal(t *testing.T) {
	ctx := context.Background()
	svc, user, root := setupMedia(t)

	m, err := svc.AddAvatar(ctx, user.ID, "me.png", pngImage(t, 20, 20))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, filepath.FromSlash(ThumbPath(m)))))

	f, err := svc.OpenAvatar(ctx, user.ID)
	require.NoError(t, err)

	defer func() {
		_ = f.Close()
	}()

	assert.Equal(t, "image/png", f.ContentType)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestDeleteAvatar(t *testing.T) {
	ctx := context.Background()
	svc, user, _ := setupMedia(t)

	require.ErrorIs(t, svc.DeleteAvatar(ctx, user.ID), ErrMediaNotFound)

	_, err := svc.AddAvatar(ctx, user.ID, "me.png", pngImage(t, 20, 20))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAvatar(ctx, user.ID))

	_, err = svc.OpenAvatar(ctx, user.ID)
	require.ErrorIs(t, err, ErrMediaNotFound)

	url, err := svc.AvatarURLFor(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestLocalDisk_RejectsEscapingPaths(t *testing.T) {
	disk := NewLocalDisk(t.TempDir())

	_, err := disk.Open(context.Background(), "../etc/passwd")
	require.ErrorIs(t, err, ErrInvalidPath)

	_, err = disk.Open(context.Background(), "1/avatar/missing.png")
	require.ErrorIs(t, err, ErrMediaNotFound)
}

func TestManager_Apply(t *testing.T) {
	local := NewLocalDisk(t.TempDir())
	m := NewManager(local, "http://127.0.0.1:9000")
	rt := appconfig.NewRuntime()
	m.Watch(rt)

	assert.Equal(t, DiskLocal, m.Default().Name())

	_, err := m.Get(DiskS3)
	require.ErrorIs(t, err, ErrUnknownDisk)

	res := *rt.Current()
	res.AWS = appconfig.AWS{
		AccessKeyID:          "key",
		SecretAccessKey:      "secret",
		DefaultRegion:        "us-east-1",
		Bucket:               "avatars",
		UsePathStyleEndpoint: true,
	}
	rt.Seed(&res)

	disk := m.Default()
	require.Equal(t, DiskS3, disk.Name())
	assert.Equal(t, "avatars", disk.(*S3Disk).Bucket())

	got, err := m.Get(DiskLocal)
	require.NoError(t, err)
	assert.Same(t, local, got)
}
