package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fxamacker/cbor/v2"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/1broseidon/displaywatch"
	"github.com/1broseidon/displaywatch/internal/config"
)

// eventRecord is the machine-readable form of a Change.
type eventRecord struct {
	Time         time.Time           `json:"time"`
	Kind         string              `json:"kind"`
	Display      string              `json:"display"`
	Available    bool                `json:"available"`
	BeforeSize   *displaywatch.Size  `json:"before_size,omitempty"`
	AfterSize    *displaywatch.Size  `json:"after_size,omitempty"`
	BeforeOrigin *displaywatch.Point `json:"before_origin,omitempty"`
	AfterOrigin  *displaywatch.Point `json:"after_origin,omitempty"`
}

func newEventRecord(ch displaywatch.Change, at time.Time) eventRecord {
	rec := eventRecord{
		Time:      at.UTC(),
		Kind:      string(ch.Event.Kind()),
		Display:   ch.Event.Display().String(),
		Available: ch.Available(),
	}
	switch ev := ch.Event.(type) {
	case displaywatch.SizeChanged:
		rec.BeforeSize, rec.AfterSize = &ev.Before, &ev.After
	case displaywatch.OriginChanged:
		rec.BeforeOrigin, rec.AfterOrigin = &ev.Before, &ev.After
	}
	return rec
}

// displayRecord is the machine-readable form of one listed display.
type displayRecord struct {
	ID       string  `json:"id"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Primary  bool    `json:"primary"`
	Mirrored bool    `json:"mirrored"`
	MirrorOf string  `json:"mirror_of,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

func newDisplayRecord(r displaywatch.Record) displayRecord {
	st := r.State()
	out := displayRecord{
		ID:       r.ID.String(),
		X:        r.Origin.X,
		Y:        r.Origin.Y,
		Width:    r.Size.Width,
		Height:   r.Size.Height,
		Primary:  r.Primary,
		Mirrored: st.Mirrored,
	}
	if r.MirrorOf != nil {
		out.MirrorOf = r.MirrorOf.String()
	}
	if r.Scale != nil {
		out.Scale = *r.Scale
	}
	return out
}

// printer writes changes and display lists in one output format.
type printer interface {
	Change(ch displaywatch.Change, at time.Time) error
	Displays(records []displaywatch.Record) error
}

// useColor resolves a color mode against the output stream.
func useColor(mode config.ColorMode, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newPrinter(w io.Writer, format config.Format, color bool) (printer, error) {
	switch format {
	case config.FormatText, "":
		return newTextPrinter(w, color), nil
	case config.FormatJSON:
		return &jsonPrinter{enc: json.NewEncoder(w)}, nil
	case config.FormatCBOR:
		return newCBORPrinter(w)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

type textPrinter struct {
	w io.Writer

	time     lipgloss.Style
	id       lipgloss.Style
	dim      lipgloss.Style
	added    lipgloss.Style
	removed  lipgloss.Style
	changed  lipgloss.Style
	mirrored lipgloss.Style
}

func newTextPrinter(w io.Writer, color bool) *textPrinter {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &textPrinter{
		w:        w,
		time:     r.NewStyle().Foreground(lipgloss.Color("8")),
		id:       r.NewStyle().Bold(true),
		dim:      r.NewStyle().Foreground(lipgloss.Color("8")),
		added:    r.NewStyle().Foreground(lipgloss.Color("2")).Width(14),
		removed:  r.NewStyle().Foreground(lipgloss.Color("1")).Width(14),
		changed:  r.NewStyle().Foreground(lipgloss.Color("3")).Width(14),
		mirrored: r.NewStyle().Foreground(lipgloss.Color("5")).Width(14),
	}
}

func (p *textPrinter) kindStyle(kind displaywatch.EventKind) lipgloss.Style {
	switch kind {
	case displaywatch.KindAdded:
		return p.added
	case displaywatch.KindRemoved:
		return p.removed
	case displaywatch.KindMirrored, displaywatch.KindUnMirrored:
		return p.mirrored
	default:
		return p.changed
	}
}

func (p *textPrinter) Change(ch displaywatch.Change, at time.Time) error {
	ev := ch.Event
	var detail string
	switch e := ev.(type) {
	case displaywatch.SizeChanged:
		detail = fmt.Sprintf("%s -> %s", e.Before, e.After)
	case displaywatch.OriginChanged:
		detail = fmt.Sprintf("%s -> %s", e.Before, e.After)
	case displaywatch.Added:
		if ch.Display != nil {
			detail = fmt.Sprintf("%s at %s", ch.Display.Size(), ch.Display.Origin())
		}
	}
	if detail != "" {
		detail = " " + p.dim.Render(detail)
	}

	_, err := fmt.Fprintf(p.w, "%s %s %s%s\n",
		p.time.Render(at.Format("15:04:05")),
		p.kindStyle(ev.Kind()).Render(string(ev.Kind())),
		p.id.Render(ev.Display().String()),
		detail)
	return err
}

func (p *textPrinter) Displays(records []displaywatch.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(p.w, p.dim.Render("no active displays"))
		return err
	}

	width := 0
	for _, r := range records {
		if n := len(r.ID.String()); n > width {
			width = n
		}
	}

	for _, r := range records {
		d := newDisplayRecord(r)
		var flags []string
		if d.Primary {
			flags = append(flags, "primary")
		}
		if d.MirrorOf != "" {
			flags = append(flags, "mirror of "+d.MirrorOf)
		} else if d.Mirrored {
			flags = append(flags, "mirrored")
		}
		if d.Scale != 0 {
			flags = append(flags, fmt.Sprintf("scale %.2g", d.Scale))
		}

		line := fmt.Sprintf("%s  %dx%d+%d+%d",
			p.id.Render(fmt.Sprintf("%-*s", width, d.ID)),
			d.Width, d.Height, d.X, d.Y)
		if len(flags) > 0 {
			line += "  " + p.dim.Render(strings.Join(flags, ", "))
		}
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}
	}
	return nil
}

// jsonPrinter writes one JSON object per line.
type jsonPrinter struct {
	enc *json.Encoder
}

func (p *jsonPrinter) Change(ch displaywatch.Change, at time.Time) error {
	return p.enc.Encode(newEventRecord(ch, at))
}

func (p *jsonPrinter) Displays(records []displaywatch.Record) error {
	for _, r := range records {
		if err := p.enc.Encode(newDisplayRecord(r)); err != nil {
			return err
		}
	}
	return nil
}

// cborPrinter writes a CBOR sequence (RFC 8742) with core deterministic
// encoding, so the same change always produces the same bytes.
type cborPrinter struct {
	enc *cbor.Encoder
}

func newCBORPrinter(w io.Writer) (*cborPrinter, error) {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	mode, err := opts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder: %w", err)
	}
	return &cborPrinter{enc: mode.NewEncoder(w)}, nil
}

func (p *cborPrinter) Change(ch displaywatch.Change, at time.Time) error {
	return p.enc.Encode(newEventRecord(ch, at))
}

func (p *cborPrinter) Displays(records []displaywatch.Record) error {
	for _, r := range records {
		if err := p.enc.Encode(newDisplayRecord(r)); err != nil {
			return err
		}
	}
	return nil
}

// swappablePrinter lets a config reload change the output format while
// changes are being printed.
type swappablePrinter struct {
	mu sync.Mutex
	p  printer
}

func (s *swappablePrinter) set(p printer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p
}

func (s *swappablePrinter) Change(ch displaywatch.Change, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Change(ch, at)
}

func (s *swappablePrinter) Displays(records []displaywatch.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Displays(records)
}
