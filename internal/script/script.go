// Package script resolves TConvertScript batch documents into flat lists of
// work items.
package script

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"

	"xnbconv/pkg/imgutil"
)

// RootElement is the required document element.
const RootElement = "TConvertScript"

// ErrNoRoot is returned when the document element is not RootElement.
var ErrNoRoot = errors.New("no root element " + RootElement)

// Item is one resolved unit of work.
type Item struct {
	Input       string
	Output      string
	Compress    bool
	Premultiply bool
}

// Defaults are the run-level settings a script starts from.
type Defaults struct {
	Compress    bool
	Premultiply bool
}

// Script is a fully resolved document. Extracts and Converts are partitioned
// from the File entries by input extension.
type Script struct {
	Path     string
	Backups  []Item
	Restores []Item
	Extracts []Item
	Converts []Item
	Warnings []string
}

// Len is the number of file items the script will process directly.
func (s *Script) Len() int {
	return len(s.Extracts) + len(s.Converts)
}

// LoadError reports a script that could not be used at all.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load script %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads and resolves the script at path. Relative paths inside the
// document are resolved against the script's own directory.
func Load(path string, defaults Defaults) (*Script, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	dir := filepath.Dir(abs)
	if info, err := os.Stat(dir); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	} else if !info.IsDir() {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%s is not a directory", dir)}
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	s, err := Parse(f, dir, defaults)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	s.Path = abs
	return s, nil
}

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Parse resolves a script document read from r. baseDir anchors relative
// paths; an empty baseDir leaves them relative.
func Parse(r io.Reader, baseDir string, defaults Defaults) (*Script, error) {
	var root node
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRoot
		}
		return nil, err
	}
	if root.XMLName.Local != RootElement {
		return nil, ErrNoRoot
	}

	res := &resolver{baseDir: baseDir}
	res.folder(&root, ScopeDefaults{Compress: defaults.Compress, Premultiply: defaults.Premultiply}, RootElement)

	s := &Script{
		Backups:  res.backups,
		Restores: res.restores,
		Warnings: res.warnings,
	}
	for _, item := range res.files {
		ext := imgutil.Ext(item.Input)
		switch {
		case imgutil.IsContainerExt(ext):
			s.Extracts = append(s.Extracts, item)
		case imgutil.IsImageExt(ext), imgutil.IsAudioExt(ext):
			s.Converts = append(s.Converts, item)
		}
	}
	return s, nil
}

type resolver struct {
	baseDir  string
	files    []Item
	backups  []Item
	restores []Item
	warnings []string
}

func (r *resolver) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *resolver) item(input, output string, compress, premultiply bool) Item {
	return Item{
		Input:       r.resolve(input),
		Output:      r.resolve(output),
		Compress:    compress,
		Premultiply: premultiply,
	}
}

func (r *resolver) resolve(p string) string {
	if r.baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.baseDir, p)
}

// pathAttr fetches and validates a path attribute, warning on failure.
func (r *resolver) pathAttr(n *node, name string) (string, bool) {
	elem := n.XMLName.Local
	value, ok := n.attr(name)
	if !ok {
		r.warnf("no %s attribute in %s element", name, elem)
		return "", false
	}
	if !validPath(value) {
		r.warnf("invalid %s attribute in %s element: '%s'", name, elem, value)
		return "", false
	}
	return value, true
}

// boolValue reads a Compress/Premultiply element's Value attribute.
func (r *resolver) boolValue(n *node, current bool) bool {
	elem := n.XMLName.Local
	value, ok := n.attr("Value")
	if !ok {
		r.warnf("no Value attribute in %s element", elem)
		return current
	}
	b, ok := parseBool(value)
	if !ok {
		r.warnf("could not parse Value attribute in %s element: '%s'", elem, value)
		return current
	}
	return b
}

// boolOverride reads an optional boolean attribute on File or Out.
func (r *resolver) boolOverride(n *node, name string, current bool) bool {
	value, ok := n.attr(name)
	if !ok {
		return current
	}
	b, ok := parseBool(value)
	if !ok {
		r.warnf("could not parse %s attribute in %s element: '%s'", name, n.XMLName.Local, value)
		return current
	}
	return b
}

// folder walks the children of the root or a Folder element. Settings made by
// Compress, Premultiply and Output apply to the siblings that follow them.
func (r *resolver) folder(n *node, inherited ScopeDefaults, context string) {
	scope := inherited
	for i := range n.Children {
		child := &n.Children[i]
		switch child.XMLName.Local {
		case "Compress":
			scope = scope.WithCompress(r.boolValue(child, scope.Compress))
		case "Premultiply":
			scope = scope.WithPremultiply(r.boolValue(child, scope.Premultiply))
		case "Output":
			if p, ok := r.pathAttr(child, "Path"); ok {
				scope = scope.WithOutput(join(inherited.Output, p))
			}
		case "Backup":
			if p, ok := r.pathAttr(child, "Path"); ok {
				r.backups = append(r.backups, r.item(scope.input(p), scope.Output, false, true))
			}
		case "Restore":
			if p, ok := r.pathAttr(child, "Path"); ok {
				r.restores = append(r.restores, r.item(scope.input(p), scope.Output, false, true))
			}
		case "Folder":
			if p, ok := r.pathAttr(child, "Path"); ok {
				r.folder(child, scope.WithInput(scope.input(p)), "Folder")
			}
		case "File":
			r.file(child, scope)
		default:
			r.warnf("invalid element in %s: '%s'", context, child.XMLName.Local)
		}
	}
}

// file resolves a File element: an optional OutPath item plus one item per
// nested Out element.
func (r *resolver) file(n *node, inherited ScopeDefaults) {
	p, ok := r.pathAttr(n, "Path")
	if !ok {
		return
	}
	input := inherited.input(p)
	scope := inherited.
		WithCompress(r.boolOverride(n, "Compress", inherited.Compress)).
		WithPremultiply(r.boolOverride(n, "Premultiply", inherited.Premultiply))

	if _, has := n.attr("OutPath"); has {
		if out, ok := r.pathAttr(n, "OutPath"); ok {
			r.files = append(r.files, r.item(input, join(scope.Output, out), scope.Compress, scope.Premultiply))
		}
	}

	fileScope := scope
	for i := range n.Children {
		child := &n.Children[i]
		switch child.XMLName.Local {
		case "Compress":
			fileScope = fileScope.WithCompress(r.boolValue(child, fileScope.Compress))
		case "Premultiply":
			fileScope = fileScope.WithPremultiply(r.boolValue(child, fileScope.Premultiply))
		case "Output":
			if out, ok := r.pathAttr(child, "Path"); ok {
				fileScope = fileScope.WithOutput(join(scope.Output, out))
			}
		case "Out":
			out, ok := r.pathAttr(child, "Path")
			if !ok {
				continue
			}
			r.files = append(r.files, r.item(
				input,
				join(fileScope.Output, out),
				r.boolOverride(child, "Compress", fileScope.Compress),
				r.boolOverride(child, "Premultiply", fileScope.Premultiply),
			))
		default:
			r.warnf("invalid element in File: '%s'", child.XMLName.Local)
		}
	}
}

// join composes an inherited prefix with a node's own path. Rooted paths
// replace the prefix.
func join(prefix, p string) string {
	if prefix == "" || filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(prefix, p)
}

// validPath rejects empty paths and paths containing characters no
// supported filesystem accepts.
func validPath(p string) bool {
	if strings.TrimSpace(p) == "" {
		return false
	}
	for _, c := range p {
		if c < 0x20 || strings.ContainsRune(`"<>|`, c) {
			return false
		}
	}
	return true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
