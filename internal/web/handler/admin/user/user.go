// Package user provides handlers for managing users (CRUD) in admin area.
package user

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/panelkit/panelkit/internal/activity"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/pagination"
	"github.com/panelkit/panelkit/internal/validation"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/navigation"
	"github.com/panelkit/panelkit/internal/web/session"
	"github.com/panelkit/panelkit/internal/web/shared"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "admin/users"

	// ComponentIndex lists users.
	ComponentIndex = "admin/users/index"
	// ComponentCreate is the create form.
	ComponentCreate = "admin/users/create"
	// ComponentShow shows one user.
	ComponentShow = "admin/users/show"
	// ComponentEdit is the edit form.
	ComponentEdit = "admin/users/edit"
	// ComponentActivities lists the changes made to one user.
	ComponentActivities = "admin/users/activities"

	// MsgCreated is flashed after creating a user.
	MsgCreated = "User created successfully."
	// MsgUpdated is flashed after updating a user.
	MsgUpdated = "User updated successfully."
	// MsgDeleted is flashed after deleting a user.
	MsgDeleted = "User deleted successfully."
	// MsgDeleteSelf is flashed when an admin tries to delete their own account.
	MsgDeleteSelf = "You cannot delete your own account from here."
	// MsgEmailTaken is shown for addresses used by another account.
	MsgEmailTaken = "The email has already been taken."
)

// StoreForm creates a user.
type StoreForm struct {
	Name     string `form:"name"     label:"name"     validate:"required,max=255"`
	Email    string `form:"email"    label:"email"    validate:"required,email,max=255"`
	Password string `form:"password" label:"password" validate:"required,min=8,max=255"`
}

// UpdateForm updates a user. An empty password keeps the current one.
type UpdateForm struct {
	Name     string `form:"name"     label:"name"     validate:"required,max=255"`
	Email    string `form:"email"    label:"email"    validate:"required,email,max=255"`
	Password string `form:"password" label:"password" validate:"omitempty,min=8,max=255"`
}

func (f *StoreForm) old() map[string]string {
	return map[string]string{"name": f.Name, "email": f.Email}
}

func (f *UpdateForm) old() map[string]string {
	return map[string]string{"name": f.Name, "email": f.Email}
}

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.deps = deps

	app.Route(Path, func(router fiber.Router) {
		router.Use(
			auth.RequireAuth(),
			auth.RequireRole(models.RoleAdmin),
			auth.RequirePermission(deps.Auth, auth.PermAdminUsers),
		)
		router.Get(handler.RootPath, s.Index)
		router.Post(handler.RootPath, s.Store)
		router.Get("/create", s.Create)
		router.Get("/:id", s.Show)
		router.Get("/:id/edit", s.Edit)
		router.Put("/:id", s.Update)
		router.Patch("/:id", s.Update)
		router.Delete("/:id", s.Destroy)
		router.Get("/:id/activities", auth.RequirePermission(deps.Auth, auth.PermAdminActivities), s.Activities)
	})

	return nil
}

func userPath(id uint64) string {
	return Path + "/" + handler.FormatID(id)
}

// find loads the user of the :id parameter. Unknown users answer 404.
func (s *Service) find(c *fiber.Ctx) (*models.User, error) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return nil, err
	}

	user, err := s.deps.Users.GetUserByID(c.UserContext(), id)
	if errors.Is(err, auth.ErrUserNotFound) {
		return nil, fiber.ErrNotFound
	}

	return user, err
}

// Index lists users with search and pagination.
func (s *Service) Index(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("search"))

	page, err := s.deps.Users.ListUsers(c.UserContext(), search, handler.PageRequest(c))
	if err != nil {
		return err
	}

	views := make([]*shared.UserView, len(page.Data))
	for i := range page.Data {
		if views[i], err = shared.NewUserView(c, s.deps, &page.Data[i]); err != nil {
			return err
		}
	}

	return s.deps.Pages.Render(c, ComponentIndex, fiber.Map{
		"breadcrumbs": navigation.Users(),
		"users":       pagination.Build(views, page.Total, handler.PageRequest(c)),
		"filters":     fiber.Map{"search": search},
	})
}

// Create renders the create form.
func (s *Service) Create(c *fiber.Ctx) error {
	return s.deps.Pages.Render(c, ComponentCreate, fiber.Map{
		"breadcrumbs": navigation.Users().Add("Create", Path+"/create"),
	})
}

// Store creates a user with the user role.
func (s *Service) Store(c *fiber.Ctx) error {
	form := new(StoreForm)

	if err := handler.Parse(c, s.deps.Validator, form); err != nil {
		return handler.Fail(c, err, form.old(), Path+"/create")
	}

	created, err := s.deps.Users.CreateUser(handler.Context(c), auth.NewUser{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		Roles:    []string{models.RoleUser},
	})
	if errors.Is(err, auth.ErrEmailExists) {
		return handler.Invalid(c, validation.Errors{"email": MsgEmailTaken}, form.old(), Path+"/create")
	}

	if err != nil {
		return handler.ServerError(c, err, Path+"/create", "failed to create user")
	}

	log.Info().Uint64("user_id", created.ID).Uint64("admin_id", auth.CurrentUser(c).ID).Msg("user created")

	return handler.Redirect(c, Path, session.FlashSuccess, MsgCreated)
}

func (s *Service) render(c *fiber.Ctx, component string, trail navigation.Trail) error {
	user, err := s.find(c)
	if err != nil {
		return err
	}

	view, err := shared.NewUserView(c, s.deps, user)
	if err != nil {
		return err
	}

	return s.deps.Pages.Render(c, component, fiber.Map{
		"breadcrumbs": trail.Add(user.Name, userPath(user.ID)),
		"user":        view,
	})
}

// Show renders one user.
func (s *Service) Show(c *fiber.Ctx) error {
	return s.render(c, ComponentShow, navigation.Users())
}

// Edit renders the edit form.
func (s *Service) Edit(c *fiber.Ctx) error {
	return s.render(c, ComponentEdit, navigation.Users())
}

// Update saves name, email and optionally a new password.
func (s *Service) Update(c *fiber.Ctx) error {
	user, err := s.find(c)
	if err != nil {
		return err
	}

	form := new(UpdateForm)
	back := userPath(user.ID) + "/edit"

	if err := handler.Parse(c, s.deps.Validator, form); err != nil {
		return handler.Fail(c, err, form.old(), back)
	}

	_, err = s.deps.Users.UpdateUser(handler.Context(c), user.ID, auth.UserUpdate{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if errors.Is(err, auth.ErrEmailExists) {
		return handler.Invalid(c, validation.Errors{"email": MsgEmailTaken}, form.old(), back)
	}

	if err != nil {
		return handler.ServerError(c, err, back, "failed to update user")
	}

	return handler.Redirect(c, Path, session.FlashSuccess, MsgUpdated)
}

// Destroy soft deletes a user. Admins cannot delete themselves here.
func (s *Service) Destroy(c *fiber.Ctx) error {
	user, err := s.find(c)
	if err != nil {
		return err
	}

	current := auth.CurrentUser(c)
	if user.ID == current.ID {
		return handler.Back(c, Path, session.FlashError, MsgDeleteSelf)
	}

	if err := s.deps.Users.DeleteUser(handler.Context(c), user.ID); err != nil {
		return handler.ServerError(c, err, Path, "failed to delete user")
	}

	log.Info().Uint64("user_id", user.ID).Uint64("admin_id", current.ID).Msg("user deleted")

	return handler.Redirect(c, Path, session.FlashSuccess, MsgDeleted)
}

// Activities lists the logged changes of one user.
func (s *Service) Activities(c *fiber.Ctx) error {
	user, err := s.find(c)
	if err != nil {
		return err
	}

	view, err := shared.NewUserView(c, s.deps, user)
	if err != nil {
		return err
	}

	activities, err := s.deps.Activity.ForSubject(c.UserContext(), activity.SubjectUser, user.ID, handler.PageRequest(c))
	if err != nil {
		return err
	}

	return s.deps.Pages.Render(c, ComponentActivities, fiber.Map{
		"breadcrumbs": navigation.Users().
			Add(user.Name, userPath(user.ID)).
			Add("Activities", userPath(user.ID)+"/activities"),
		"user":       view,
		"activities": activities,
	})
}
