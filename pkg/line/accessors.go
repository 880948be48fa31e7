package line

// Speaker returns the speaker of a Dialogue.
func Speaker(l Line) (string, bool) {
	d, ok := l.(Dialogue)
	return d.Speaker, ok
}

// Text returns the text of a Dialogue.
func Text(l Line) (string, bool) {
	d, ok := l.(Dialogue)
	return d.Text, ok
}

// Attributes returns the attributes of a Dialogue.
func Attributes(l Line) ([]Attribute, bool) {
	d, ok := l.(Dialogue)
	return d.Attributes, ok
}

// Captions returns the captions of a Choices line in story order.
func Captions(l Line) ([]string, bool) {
	c, ok := l.(Choices)
	return c.Captions, ok
}

// Timeout returns the advisory timeout of a Choices line.
func Timeout(l Line) (float64, bool) {
	c, ok := l.(Choices)
	return c.Timeout, ok
}

// CommandName returns the name of a Command.
func CommandName(l Line) (string, bool) {
	c, ok := l.(Command)
	return c.Name, ok
}

// Params returns the ordered parameters of a Command.
func Params(l Line) ([]Param, bool) {
	c, ok := l.(Command)
	return c.Params, ok
}

// Or drops the ok flag, keeping the zero payload the accessors return for
// the wrong variant. Use it as Or(Captions(l)).
func Or[T any](v T, _ bool) T {
	return v
}
