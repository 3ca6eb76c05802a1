// Package inertia renders pages for a client side router: full HTML on the first visit and
// JSON page objects on subsequent X-Inertia requests.
package inertia

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Protocol headers.
const (
	HeaderInertia          = "X-Inertia"
	HeaderVersion          = "X-Inertia-Version"
	HeaderLocation         = "X-Inertia-Location"
	HeaderPartialData      = "X-Inertia-Partial-Data"
	HeaderPartialExcept    = "X-Inertia-Partial-Except"
	HeaderPartialComponent = "X-Inertia-Partial-Component"
)

// DefaultRootTemplate is the HTML shell rendered on full page loads.
const DefaultRootTemplate = "app"

const sharedLocal = "inertia.shared"

// Page is the page object exchanged with the client.
type Page struct {
	Component string         `json:"component"`
	Props     map[string]any `json:"props"`
	URL       string         `json:"url"`
	Version   string         `json:"version"`
}

// LazyProp is evaluated only when the prop is sent.
type LazyProp func() (any, error)

// SharedFunc contributes props to every page of a request.
type SharedFunc func(c *fiber.Ctx) (fiber.Map, error)

// Renderer renders pages.
type Renderer struct {
	version      string
	rootTemplate string
	shared       []SharedFunc
}

// New creates a Renderer for the given asset version.
func New(version string) *Renderer {
	return &Renderer{version: version, rootTemplate: DefaultRootTemplate}
}

// Version returns the asset version.
func (r *Renderer) Version() string {
	return r.version
}

// Share registers fn. Shared props are computed once per request, in registration order,
// and page props win over shared props of the same name.
func (r *Renderer) Share(fn SharedFunc) {
	r.shared = append(r.shared, fn)
}

// IsInertia reports whether c was sent by the client router.
func IsInertia(c *fiber.Ctx) bool {
	return c.Get(HeaderInertia) == "true"
}

func (r *Renderer) sharedProps(c *fiber.Ctx) (fiber.Map, error) {
	if props, ok := c.Locals(sharedLocal).(fiber.Map); ok {
		return props, nil
	}

	props := fiber.Map{}

	for _, fn := range r.shared {
		values, err := fn(c)
		if err != nil {
			return nil, err
		}

		for k, v := range values {
			props[k] = v
		}
	}

	c.Locals(sharedLocal, props)

	return props, nil
}

// Render answers with component and props.
func (r *Renderer) Render(c *fiber.Ctx, component string, props fiber.Map) error {
	page, err := r.page(c, component, props)
	if err != nil {
		return err
	}

	c.Vary(HeaderInertia)

	if IsInertia(c) {
		c.Set(HeaderInertia, "true")

		return c.JSON(page)
	}

	out, err := json.Marshal(page)
	if err != nil {
		return err
	}

	return c.Render(r.rootTemplate, fiber.Map{
		"Page":    string(out),
		"Title":   props["title"],
		"AppName": page.Props["name"],
		"Version": r.version,
	})
}

func (r *Renderer) page(c *fiber.Ctx, component string, props fiber.Map) (*Page, error) {
	shared, err := r.sharedProps(c)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(shared)+len(props))
	for k, v := range shared {
		merged[k] = v
	}

	for k, v := range props {
		merged[k] = v
	}

	only, except := partial(c, component)

	out := make(map[string]any, len(merged))

	for k, v := range merged {
		if only != nil && !only[k] {
			continue
		}

		if except[k] {
			continue
		}

		if lazy, ok := v.(LazyProp); ok {
			if v, err = lazy(); err != nil {
				return nil, err
			}
		}

		out[k] = v
	}

	return &Page{
		Component: component,
		Props:     out,
		URL:       c.OriginalURL(),
		Version:   r.version,
	}, nil
}

// partial returns the requested prop filters of a partial reload of component.
func partial(c *fiber.Ctx, component string) (map[string]bool, map[string]bool) {
	if !IsInertia(c) || c.Get(HeaderPartialComponent) != component {
		return nil, nil
	}

	var only map[string]bool
	if data := c.Get(HeaderPartialData); data != "" {
		only = splitSet(data)
		// errors always travel with partial reloads
		only["errors"] = true
	}

	return only, splitSet(c.Get(HeaderPartialExcept))
}

func splitSet(s string) map[string]bool {
	set := map[string]bool{}

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			set[part] = true
		}
	}

	return set
}

// Middleware enforces the asset version and fixes redirect codes for the client router.
func (r *Renderer) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsInertia(c) {
			return c.Next()
		}

		if c.Method() == fiber.MethodGet && c.Get(HeaderVersion) != r.version {
			c.Set(HeaderLocation, c.BaseURL()+c.OriginalURL())

			return c.SendStatus(fiber.StatusConflict)
		}

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusFound && seeOther(c.Method()) {
			c.Status(fiber.StatusSeeOther)
		}

		return nil
	}
}

func seeOther(method string) bool {
	return method == fiber.MethodPut || method == fiber.MethodPatch || method == fiber.MethodDelete
}

// Redirect sends the client to url, with 303 after PUT, PATCH and DELETE.
func Redirect(c *fiber.Ctx, url string) error {
	if seeOther(c.Method()) {
		return c.Redirect(url, fiber.StatusSeeOther)
	}

	return c.Redirect(url, fiber.StatusFound)
}

// Back redirects to the referring page, or fallback when there is none.
func Back(c *fiber.Ctx, fallback string) error {
	if ref := c.Get(fiber.HeaderReferer); ref != "" {
		return Redirect(c, ref)
	}

	return Redirect(c, fallback)
}

// Location forces a full page visit to url, also for client router requests.
func Location(c *fiber.Ctx, url string) error {
	if IsInertia(c) {
		c.Set(HeaderLocation, url)

		return c.SendStatus(fiber.StatusConflict)
	}

	return c.Redirect(url, fiber.StatusFound)
}
