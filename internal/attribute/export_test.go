package attribute

// Recomputes returns how many times the entry of id folded its modifiers.
func (c *Collection) Recomputes(id ID) int {
	e, ok := c.entries[id]
	if !ok {
		return 0
	}
	return e.recomputes
}
