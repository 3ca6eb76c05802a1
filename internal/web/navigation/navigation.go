// Package navigation builds the breadcrumb trail shown above each page.
package navigation

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// Trail is an ordered list of breadcrumbs.
type Trail []BreadcrumbItem

// New starts a trail with one item.
func New(title, href string) Trail {
	return Trail{{Title: title, Href: href}}
}

// Add appends a breadcrumb and returns the trail.
func (t Trail) Add(title, href string) Trail {
	return append(t, BreadcrumbItem{Title: title, Href: href})
}

// Current returns the last item, the page being shown.
func (t Trail) Current() (BreadcrumbItem, bool) {
	if len(t) == 0 {
		return BreadcrumbItem{}, false
	}

	return t[len(t)-1], true
}

// Common trails.
var (
	Dashboard      = func() Trail { return New("Dashboard", "/dashboard") }
	AdminDashboard = func() Trail { return New("Admin", "/admin/dashboard") }
	Users          = func() Trail { return AdminDashboard().Add("Users", "/admin/users") }
	Settings       = func() Trail { return AdminDashboard().Add("Settings", "/admin/settings") }
	Profile        = func() Trail { return New("Profile settings", "/settings/profile") }
	Password       = func() Trail { return New("Password settings", "/settings/password") }
	Appearance     = func() Trail { return New("Appearance settings", "/settings/appearance") }
	TwoFactor      = func() Trail { return New("Two-Factor Authentication", "/settings/two-factor") }
)
