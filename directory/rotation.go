package directory

// Cursor selects liteservers from a directory as an endless cycle.
// It is owned by a single connection manager and is not safe for
// concurrent use.
type Cursor struct {
	dir       *Directory
	index     int
	rotations int
}

// NewCursor positions a cursor on the first liteserver.
func NewCursor(dir *Directory) (*Cursor, error) {
	if dir.Len() == 0 {
		return nil, ErrEmptyDirectory
	}
	return &Cursor{dir: dir}, nil
}

// Current returns the selected liteserver.
func (c *Cursor) Current() ServerDescriptor {
	return c.dir.servers[c.index].clone()
}

// Advance selects the next liteserver, wrapping after the last one.
func (c *Cursor) Advance() ServerDescriptor {
	c.index = (c.index + 1) % len(c.dir.servers)
	c.rotations++
	return c.Current()
}

// Position returns the index of the selected liteserver.
func (c *Cursor) Position() int {
	return c.index
}

// Rotations returns how many times Advance has been called.
func (c *Cursor) Rotations() int {
	return c.rotations
}

// Len returns the size of the underlying directory.
func (c *Cursor) Len() int {
	return len(c.dir.servers)
}
