package finale

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	xmldom "github.com/subchen/go-xmldom"
)

// child returns the first child element with the given name, following a
// slash separated path.
func child(n *xmldom.Node, path string) *xmldom.Node {
	for _, name := range strings.Split(path, "/") {
		if n == nil {
			return nil
		}
		var next *xmldom.Node
		for _, c := range n.Children {
			if c.Name == name {
				next = c
				break
			}
		}
		n = next
	}
	return n
}

func children(n *xmldom.Node, name string) []*xmldom.Node {
	var out []*xmldom.Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func has(n *xmldom.Node, path string) bool {
	return child(n, path) != nil
}

func text(n *xmldom.Node, path string) (string, bool) {
	c := child(n, path)
	if c == nil {
		return "", false
	}
	return strings.TrimSpace(c.Text), true
}

func hasAttr(n *xmldom.Node, name string) bool {
	for _, a := range n.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

// fieldReader decodes integer fields and keeps the first failure, so a
// record can be read field by field and checked once.
type fieldReader struct {
	err error
}

func (r *fieldReader) atoi(s, what string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil && r.err == nil {
		r.err = errors.Wrapf(err, "invalid %s %q", what, s)
	}
	return v
}

// num reads an optional integer child element.
func (r *fieldReader) num(n *xmldom.Node, path string) (int, bool) {
	s, ok := text(n, path)
	if !ok || s == "" {
		return 0, false
	}
	return r.atoi(s, n.Name+"/"+path), true
}

func (r *fieldReader) numOr(n *xmldom.Node, path string, def int) int {
	if v, ok := r.num(n, path); ok {
		return v
	}
	return def
}

func (r *fieldReader) attr(n *xmldom.Node, name string) int {
	s := n.GetAttributeValue(name)
	if s == "" {
		if r.err == nil {
			r.err = errors.Errorf("%s has no %s attribute", n.Name, name)
		}
		return 0
	}
	return r.atoi(s, n.Name+"@"+name)
}
