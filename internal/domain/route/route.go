// Package route holds the navigation table of the site: the four views and
// the paths they live at.
package route

import "strings"

// Route identifies one view. The zero value is Landing.
type Route int

// Known routes.
const (
	Landing Route = iota
	Upload
	Results
	History
)

var paths = [...]string{
	Landing: "/",
	Upload:  "/upload",
	Results: "/results",
	History: "/history",
}

var names = [...]string{
	Landing: "landing",
	Upload:  "upload",
	Results: "results",
	History: "history",
}

// All returns every route in navigation order.
func All() []Route {
	return []Route{Landing, Upload, Results, History}
}

// Path returns the URL path of r.
func (r Route) Path() string {
	if r < Landing || r > History {
		return paths[Landing]
	}
	return paths[r]
}

// String returns a short lowercase name used in logs and metric labels.
func (r Route) String() string {
	if r < Landing || r > History {
		return names[Landing]
	}
	return names[r]
}

// Resolve maps a request path to a route. A single trailing slash is
// tolerated. Unknown paths resolve to Landing with ok == false; callers
// redirect those to Landing's path.
func Resolve(path string) (r Route, ok bool) {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	for i, p := range paths {
		if p == path {
			return Route(i), true
		}
	}
	return Landing, false
}
