package populate

import (
	"fmt"
	"strings"
)

// ContentOverflowError is returned when a page carries more content items than
// the target slide has content placeholders.
type ContentOverflowError struct {
	Slide  int
	Items  int
	Blocks int
}

func (e *ContentOverflowError) Error() string {
	return fmt.Sprintf("slide %d: %d content items but only %d content placeholders, check the template", e.Slide, e.Items, e.Blocks)
}

// InvalidLayoutError is returned when a page references a layout the template
// does not have.
type InvalidLayoutError struct {
	Slide      int
	Layout     string
	Available  int
	Suggestion string
}

func (e *InvalidLayoutError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "slide %d: layout %s not found, the template has %d layouts (0-%d)", e.Slide, e.Layout, e.Available, e.Available-1)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, ", did you mean %q?", e.Suggestion)
	}
	return b.String()
}
