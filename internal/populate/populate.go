// Package populate fills a deck template with the pages of a document.
package populate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/dgallion1/autopages/internal/deck"
	"github.com/dgallion1/autopages/internal/record"
)

// DateLayout is the layout of the generation timestamp, DD/MM/YYYY HH:MM.
const DateLayout = "02/01/2006 15:04"

// Options control how pages are written.
type Options struct {
	// NoTitles leaves every title placeholder untouched.
	NoTitles bool
	// Now is read once per page for the date placeholder.
	Now func() time.Time
}

// Populator writes documents onto copies of a template.
type Populator struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Populator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Populator{opts: opts, log: log}
}

// Populate opens the template, writes doc onto it and saves the result to
// outputPath, which it returns. On error nothing is written.
func (p *Populator) Populate(ctx context.Context, templatePath, outputPath string, doc record.Document) (string, error) {
	d, err := deck.Open(templatePath)
	if err != nil {
		return "", err
	}
	if err := p.Fill(ctx, d, doc); err != nil {
		return "", err
	}

	if err := d.Save(outputPath); err != nil {
		return "", err
	}
	p.log.Info("deck written", "output", outputPath, "pages", len(doc.Pages))
	return outputPath, nil
}

// Fill writes every page of doc onto d in order.
func (p *Populator) Fill(ctx context.Context, d *deck.Deck, doc record.Document) error {
	total := len(doc.Pages)
	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.fillPage(d, i, total, page); err != nil {
			return err
		}
	}
	return nil
}

func (p *Populator) fillPage(d *deck.Deck, i, total int, page record.Page) error {
	c := page.Content
	slide, err := resolveSlide(d, i, c.Layout)
	if err != nil {
		return err
	}
	log := p.log.With("slide", i, "key", page.Key)

	found := discover(slide)
	if len(c.Items) > len(found.content) {
		return &ContentOverflowError{Slide: i, Items: len(c.Items), Blocks: len(found.content)}
	}

	if len(found.dates) == 0 && len(found.numbers) == 0 {
		if master := d.Master(); master != nil {
			for _, ph := range master.Placeholders {
				slide.ClonePlaceholder(ph)
			}
			after := discover(slide)
			found.dates, found.numbers = after.dates, after.numbers
			log.Debug("footer placeholders taken from master", "date", len(found.dates), "number", len(found.numbers))
		}
	}

	if found.title != nil && !p.opts.NoTitles && c.HasTitle && !ignoredTitle(c.Title) {
		if err := found.title.SetText(c.Title); err != nil {
			return fmt.Errorf("slide %d: title: %w", i, err)
		}
	}

	for n, text := range c.Items {
		if err := found.content[n].SetText(text); err != nil {
			return fmt.Errorf("slide %d: content block %d: %w", i, n, err)
		}
	}

	if len(found.dates) > 0 {
		stamp := "generated on " + p.opts.Now().Format(DateLayout)
		for _, ph := range found.dates {
			if err := ph.SetText(stamp); err != nil {
				return fmt.Errorf("slide %d: date: %w", i, err)
			}
		}
	}
	for _, ph := range found.numbers {
		if err := ph.SetText(fmt.Sprintf("page %d/%d", i+1, total)); err != nil {
			return fmt.Errorf("slide %d: slide number: %w", i, err)
		}
	}

	log.Debug("slide populated", "items", len(c.Items), "blocks", len(found.content))
	return nil
}

// resolveSlide returns the existing slide i or appends one from the layout.
func resolveSlide(d *deck.Deck, i int, ref record.Layout) (*deck.Slide, error) {
	if slides := d.Slides(); i < len(slides) {
		return slides[i], nil
	}
	layout, err := findLayout(d, i, ref)
	if err != nil {
		return nil, err
	}
	return d.AddSlide(layout)
}

func findLayout(d *deck.Deck, slide int, ref record.Layout) (*deck.Layout, error) {
	layouts := d.Layouts()
	if !ref.IsNamed() {
		if ref.Index < 0 || ref.Index >= len(layouts) {
			return nil, &InvalidLayoutError{Slide: slide, Layout: ref.String(), Available: len(layouts)}
		}
		return layouts[ref.Index], nil
	}

	for _, l := range layouts {
		if l.Name == ref.Name {
			return l, nil
		}
	}
	for _, l := range layouts {
		if strings.EqualFold(l.Name, ref.Name) {
			return l, nil
		}
	}
	err := &InvalidLayoutError{Slide: slide, Layout: ref.String(), Available: len(layouts)}
	if matches := fuzzy.Find(ref.Name, d.LayoutNames()); len(matches) > 0 {
		err.Suggestion = matches[0].Str
	}
	return nil, err
}

// placeholders groups the placeholders of a slide by role, in shape order.
type placeholders struct {
	title   *deck.Placeholder
	content []*deck.Placeholder
	dates   []*deck.Placeholder
	numbers []*deck.Placeholder
}

func discover(s *deck.Slide) placeholders {
	var out placeholders
	for _, ph := range s.Placeholders() {
		switch ph.Role {
		case deck.RoleTitle:
			if out.title == nil {
				out.title = ph
			}
		case deck.RoleContent:
			out.content = append(out.content, ph)
		case deck.RoleDate:
			out.dates = append(out.dates, ph)
		case deck.RoleSlideNumber:
			out.numbers = append(out.numbers, ph)
		}
	}
	return out
}

// ignoredTitle reports titles that must not replace the template's own title
// text: empty values and the labels data frames give to unnamed columns.
func ignoredTitle(t string) bool {
	t = strings.TrimSpace(t)
	if t == "" || strings.EqualFold(t, "unnamed") || strings.EqualFold(t, "none") {
		return true
	}
	const prefix = "unnamed:"
	return len(t) >= len(prefix) && strings.EqualFold(t[:len(prefix)], prefix)
}
