// Package analyse reports the layouts and placeholders of a template and
// writes a marked-up copy that shows where each placeholder sits.
package analyse

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/autopages/internal/deck"
)

// PlaceholderInfo describes one placeholder of a layout.
type PlaceholderInfo struct {
	Idx  int    `json:"idx"`
	Type string `json:"type"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// LayoutInfo describes one layout of the master.
type LayoutInfo struct {
	Index        int               `json:"index"`
	Name         string            `json:"name"`
	Placeholders []PlaceholderInfo `json:"placeholders"`
	// ContentBlocks is how many content items a page on this layout takes.
	ContentBlocks int `json:"content_blocks"`
}

// Inspect lists the layouts of d in master order.
func Inspect(d *deck.Deck) []LayoutInfo {
	layouts := d.Layouts()
	out := make([]LayoutInfo, 0, len(layouts))
	for _, l := range layouts {
		info := LayoutInfo{Index: l.Index, Name: l.Name, Placeholders: []PlaceholderInfo{}}
		for _, ph := range l.Placeholders {
			typ := ph.Type
			if typ == "" {
				typ = "obj"
			}
			info.Placeholders = append(info.Placeholders, PlaceholderInfo{
				Idx:  ph.Idx,
				Type: typ,
				Name: ph.Name,
				Role: ph.Role.String(),
			})
			if ph.Role == deck.RoleContent {
				info.ContentBlocks++
			}
		}
		out = append(out, info)
	}
	return out
}

// MarkupPath returns where Markup writes the marked-up copy of template.
func MarkupPath(template string) string {
	return strings.TrimSuffix(template, filepath.Ext(template)) + "-markup.pptx"
}

// Markup appends one slide per layout to the template, labels every
// placeholder with its index and name, and saves the result next to the
// template. It returns the path written.
func Markup(template string, log *slog.Logger) (string, error) {
	d, err := deck.Open(template)
	if err != nil {
		return "", err
	}
	for _, l := range d.Layouts() {
		if err := markLayout(d, l, log); err != nil {
			return "", err
		}
	}
	dest := MarkupPath(template)
	if err := d.Save(dest); err != nil {
		return "", err
	}
	return dest, nil
}

func markLayout(d *deck.Deck, l *deck.Layout, log *slog.Logger) error {
	s, err := d.AddSlide(l)
	if err != nil {
		return err
	}
	title := s.Title()
	if title == nil {
		log.Info("layout has no title", "layout", l.Index, "name", l.Name)
	} else if err := title.SetText(fmt.Sprintf("Title for Layout %d", l.Index)); err != nil {
		return fmt.Errorf("layout %d: %w", l.Index, err)
	}

	for _, ph := range s.Placeholders() {
		if ph == title {
			continue
		}
		if ph.Role == deck.RolePicture {
			log.Info("placeholder has no text frame", "layout", l.Index, "idx", ph.Idx, "name", ph.Name)
			continue
		}
		if err := ph.SetText(fmt.Sprintf("Placeholder index:%d type:%s", ph.Idx, ph.Name)); err != nil {
			return fmt.Errorf("layout %d, placeholder %d: %w", l.Index, ph.Idx, err)
		}
		log.Debug("placeholder marked", "layout", l.Index, "idx", ph.Idx, "name", ph.Name)
	}
	return nil
}
