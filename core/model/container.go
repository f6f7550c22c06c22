package model

import (
	"github.com/FocuswithJustin/xmldoc/core/errors"
)

// Container is the ordered-children capability of a container node. It has
// no storage of its own: every read and write goes through the document's
// reference-list property, so index hooks fire as for any other set.
type Container struct {
	doc      *Document
	id       string
	property string
}

// Container returns the container capability of node id.
func (d *Document) Container(id string) (*Container, error) {
	node, ok := d.data.get(id)
	if !ok {
		return nil, errors.NewNotFound("node", id)
	}
	t, _ := d.schema.Type(node.Type)
	if !t.IsContainer() {
		return nil, errors.NewSchema(node.Type, "", "node type is not a container")
	}
	return &Container{doc: d, id: id, property: t.Container}, nil
}

// ID returns the container node's id.
func (c *Container) ID() string {
	return c.id
}

// ContentPath returns the [id, property] holding the children.
func (c *Container) ContentPath() []string {
	return []string{c.id, c.property}
}

// Content returns a copy of the child ids in document order.
func (c *Container) Content() []string {
	node, ok := c.doc.data.get(c.id)
	if !ok {
		return nil
	}
	return node.GetIDs(c.property)
}

// Len returns the number of children.
func (c *Container) Len() int {
	node, ok := c.doc.data.get(c.id)
	if !ok {
		return 0
	}
	ids, _ := node.props[c.property].([]string)
	return len(ids)
}

// IndexOf returns the position of id, or -1.
func (c *Container) IndexOf(id string) int {
	for i, child := range c.Content() {
		if child == id {
			return i
		}
	}
	return -1
}

// Append adds id at the end.
func (c *Container) Append(id string) error {
	return c.InsertAt(c.Len(), id)
}

// InsertAt inserts id at position i, 0 <= i <= Len().
func (c *Container) InsertAt(i int, id string) error {
	ids := c.Content()
	if i < 0 || i > len(ids) {
		return errors.NewRange(c.id, i, len(ids))
	}
	if !c.doc.Contains(id) {
		return errors.NewNotFound("node", id)
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return c.doc.Set(c.id, c.property, ids)
}

// RemoveAt removes and returns the child at position i, 0 <= i < Len().
func (c *Container) RemoveAt(i int) (string, error) {
	ids := c.Content()
	if i < 0 || i >= len(ids) {
		return "", errors.NewRange(c.id, i, len(ids))
	}
	removed := ids[i]
	ids = append(ids[:i], ids[i+1:]...)
	if err := c.doc.Set(c.id, c.property, ids); err != nil {
		return "", err
	}
	return removed, nil
}

// Remove removes the first occurrence of id.
func (c *Container) Remove(id string) error {
	i := c.IndexOf(id)
	if i < 0 {
		return errors.NewNotFound("child", id)
	}
	_, err := c.RemoveAt(i)
	return err
}

// Show appends id unless the container already lists it.
func (c *Container) Show(id string) error {
	if !c.doc.Contains(id) {
		return errors.NewNotFound("node", id)
	}
	if c.IndexOf(id) >= 0 {
		return nil
	}
	return c.Append(id)
}

// AppendChild is Show under the DOM-style name.
func (c *Container) AppendChild(id string) error {
	return c.Show(id)
}
