package internal

import "strings"

// Routes of the workflow
const (
	RouteLanding              = "/"
	RouteHome                 = "/home"
	RouteAbout                = "/about"
	RouteContact              = "/contact"
	RouteLogin                = "/login"
	RouteChooseSemester       = "/choose-semester"
	RouteOptions              = "/options"
	RouteEnroll               = "/enroll"
	RouteTakeAttendance       = "/take-attendance"
	RouteAttendanceStatistics = "/attendance-statistics"
	RouteStudentDashboard     = "/student-dashboard"
	RouteHODDashboard         = "/hod-dashboard"
)

var publicRoutes = map[string]bool{
	RouteLanding: true,
	RouteHome:    true,
	RouteAbout:   true,
	RouteContact: true,
	RouteLogin:   true,
}

var protectedRoutes = map[string]bool{
	RouteChooseSemester:       true,
	RouteOptions:              true,
	RouteEnroll:               true,
	RouteTakeAttendance:       true,
	RouteAttendanceStatistics: true,
	RouteStudentDashboard:     true,
	RouteHODDashboard:         true,
}

// Decision is the outcome of a navigation check. Redirect is empty when the
// navigation is allowed.
type Decision struct {
	Redirect string
}

// Allowed reports whether the requested view may be rendered
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Allow is the decision to render the requested view
var Allow = Decision{}

// RedirectTo builds a redirect decision
func RedirectTo(path string) Decision {
	return Decision{Redirect: path}
}

// Decide maps a requested path and the current session to a decision.
// Protected paths need an identity; unknown paths go to the landing page.
func Decide(path string, s Session) Decision {
	p := NormalizeRoute(path)
	switch {
	case publicRoutes[p]:
		return Allow
	case protectedRoutes[p]:
		if !s.LoggedIn() {
			return RedirectTo(RouteLogin)
		}
		return Allow
	default:
		return RedirectTo(RouteLanding)
	}
}

// IsProtected reports whether path needs a session
func IsProtected(path string) bool {
	return protectedRoutes[NormalizeRoute(path)]
}

// NormalizeRoute drops query strings and trailing slashes
func NormalizeRoute(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// HomeFor returns where a freshly logged in operator lands for the role the
// backend reported
func HomeFor(role string) string {
	switch strings.ToLower(role) {
	case "student":
		return RouteStudentDashboard
	case "hod":
		return RouteHODDashboard
	default:
		return RouteChooseSemester
	}
}
