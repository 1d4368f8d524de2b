package deck

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// TemplateLoadError reports a template that is not a usable PPTX package.
type TemplateLoadError struct {
	Path string
	Hint string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	msg := fmt.Sprintf("template %s is not a valid powerpoint file: %v", e.Path, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

var lfsPointerPrefix = []byte("version https://git-lfs")

// stubHint explains the usual reason a template is not a zip archive: the
// repository holds a Git LFS pointer or some other text stub instead.
func stubHint(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case len(data) == 0:
		return "the file is empty"
	case bytes.HasPrefix(head, lfsPointerPrefix):
		return "the file is a Git LFS pointer, run `git lfs pull`"
	case utf8.Valid(head) && bytes.IndexByte(head, 0) < 0:
		return "the file is plain text, try `git lfs pull` if the pptx is stored with LFS"
	}
	return ""
}
