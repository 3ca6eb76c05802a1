// Package avatar serves and manages user profile pictures.
package avatar

import (
	"errors"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/media"
	"github.com/panelkit/panelkit/internal/validation"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/handler/profile"
	"github.com/panelkit/panelkit/internal/web/session"
)

const (
	// ShowPath serves the avatar of a user.
	ShowPath = handler.RootPath + "avatars/:user"
	// Path uploads (POST) or removes (DELETE) the avatar of the current user.
	Path = handler.RootPath + "settings/avatar"
	// FormField is the multipart field carrying the upload.
	FormField = "avatar"
	// MaxSize is the largest accepted upload in bytes.
	MaxSize = 2 << 20

	// MsgNotFound is answered for users without an avatar.
	MsgNotFound = "Avatar not found"
	// MsgUpdated is flashed after an upload.
	MsgUpdated = "Avatar updated successfully."
	// MsgRemoved is flashed after removal.
	MsgRemoved = "Avatar removed successfully."
	// MsgRequired is shown when no file was sent.
	MsgRequired = "The avatar field is required."
	// MsgNotImage is shown for files that are not jpeg, png, gif or webp.
	MsgNotImage = "The avatar field must be an image."
)

// Service is the avatar handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the avatar handler.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Get(ShowPath, auth.RequireAuth(), s.Show)
	app.Post(Path, auth.RequireAuth(), s.Upload)
	app.Delete(Path, auth.RequireAuth(), s.Destroy)

	return nil
}

// Show streams the thumb, or the original when no thumb exists.
func (s *Service) Show(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("user"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, MsgNotFound)
	}

	f, err := s.deps.Media.OpenAvatar(c.UserContext(), userID)
	if errors.Is(err, media.ErrMediaNotFound) {
		return fiber.NewError(fiber.StatusNotFound, MsgNotFound)
	}

	if err != nil {
		return err
	}

	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderCacheControl, media.AvatarCacheControl)

	return c.Send(data)
}

// Upload replaces the avatar of the current user.
func (s *Service) Upload(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)

	fh, err := c.FormFile(FormField)
	if err != nil {
		return handler.Invalid(c, validation.Errors{FormField: MsgRequired}, nil, profile.Path)
	}

	if fh.Size > MaxSize {
		msg := "The avatar field must not be greater than " + humanize.IBytes(MaxSize) + "."

		return handler.Invalid(c, validation.Errors{FormField: msg}, nil, profile.Path)
	}

	file, err := fh.Open()
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(file, MaxSize))
	if err != nil {
		return err
	}

	_, err = s.deps.Media.AddAvatar(handler.Context(c), user.ID, fh.Filename, data)
	if errors.Is(err, media.ErrUnsupportedType) {
		return handler.Invalid(c, validation.Errors{FormField: MsgNotImage}, nil, profile.Path)
	}

	if err != nil {
		return handler.ServerError(c, err, profile.Path, "failed to store avatar")
	}

	return handler.Back(c, profile.Path, session.FlashSuccess, MsgUpdated)
}

// Destroy removes the avatar of the current user.
func (s *Service) Destroy(c *fiber.Ctx) error {
	err := s.deps.Media.DeleteAvatar(handler.Context(c), auth.CurrentUser(c).ID)
	if errors.Is(err, media.ErrMediaNotFound) {
		return fiber.NewError(fiber.StatusNotFound, MsgNotFound)
	}

	if err != nil {
		return handler.ServerError(c, err, profile.Path, "failed to remove avatar")
	}

	return handler.Back(c, profile.Path, session.FlashSuccess, MsgRemoved)
}
