package catalog

// Cursor is the position of the category carousel. Moving past either end
// leaves it where it is.
type Cursor struct {
	Index int
	Count int
}

func NewCursor(index, count int) Cursor {
	return Cursor{Index: index, Count: count}.Clamp()
}

func (c Cursor) Next() Cursor {
	if c.Index < c.Count-1 {
		c.Index++
	}
	return c
}

func (c Cursor) Prev() Cursor {
	if c.Index > 0 {
		c.Index--
	}
	return c
}

// Clamp pulls an index saved against a longer category list back in range.
func (c Cursor) Clamp() Cursor {
	if c.Count <= 0 || c.Index < 0 {
		c.Index = 0
		return c
	}
	if c.Index >= c.Count {
		c.Index = c.Count - 1
	}
	return c
}

func (c Cursor) HasNext() bool {
	return c.Index < c.Count-1
}

func (c Cursor) HasPrev() bool {
	return c.Index > 0
}
