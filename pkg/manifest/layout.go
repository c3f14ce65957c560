package manifest

import "path"

// Layout is one candidate location for service template files.
type Layout struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

// Path returns the relative path of file under this layout
func (l Layout) Path(file string) string {
	return path.Join(l.Dir, file)
}

// Layouts is an ordered list of candidate layouts; the first one holding a file wins.
type Layouts []Layout

// DefaultLayouts returns the release branch layout followed by the examples layout
func DefaultLayouts() Layouts {
	return Layouts{
		{Name: "post-installation", Dir: "manifests/post-installation"},
		{Name: "examples", Dir: "examples/dpf"},
	}
}

// LayoutsFromDirs builds layouts from plain directory names, keeping their order
func LayoutsFromDirs(dirs []string) Layouts {
	layouts := make(Layouts, 0, len(dirs))
	for _, dir := range dirs {
		layouts = append(layouts, Layout{Name: path.Base(dir), Dir: dir})
	}
	return layouts
}

// Resolve returns the first candidate path that exists in the tree
func (ls Layouts) Resolve(tree Tree, file string) (string, bool) {
	for _, l := range ls {
		p := l.Path(file)
		if tree.Exists(p) {
			return p, true
		}
	}
	return "", false
}

// Primary returns the path of file under the first layout, used when reporting absent files
func (ls Layouts) Primary(file string) string {
	if len(ls) == 0 {
		return file
	}
	return ls[0].Path(file)
}
