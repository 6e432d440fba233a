// Package combobox implements the searchable select primitives behind the
// contribution form: a single-value filterable combobox and a multi-select
// variant with removable chips.
//
// The components are modeled as explicit state machines over a host UI's
// events (focus, input, enter, pointer-down outside). They are designed for
// a single-threaded, event-driven caller and perform no synchronization of
// their own.
package combobox

import "strings"

// Config configures a single-value combobox. Optional fields default to
// sensible no-ops, keeping the contract explicit instead of relying on
// ad hoc optional parameters.
type Config struct {
	// Options is the known vocabulary. The displayed order of matches is
	// always the order given here; filtering never mutates the list.
	Options []string

	// FormatOption projects an option to its displayed form. Filtering and
	// the visible text both use the formatted form. Defaults to identity.
	FormatOption func(string) string

	// AllowAddNew offers committing the raw search term as the value when
	// no options match.
	AllowAddNew bool

	// OnChange is invoked whenever the committed value changes.
	OnChange func(value string)
}

// Combobox is a single-value searchable select. The visible text is either
// the committed value's formatted form or an in-progress search term; once
// the dropdown closes the two are always consistent.
type Combobox struct {
	cfg   Config
	value string
	term  string
	open  bool
}

// New creates a combobox. Defaults are applied to the config: a nil
// FormatOption becomes identity, a nil OnChange becomes a no-op.
func New(cfg Config) *Combobox {
	if cfg.FormatOption == nil {
		cfg.FormatOption = func(s string) string { return s }
	}
	if cfg.OnChange == nil {
		cfg.OnChange = func(string) {}
	}
	return &Combobox{cfg: cfg}
}

// Value returns the committed value.
func (c *Combobox) Value() string { return c.value }

// Text returns the visible input text.
func (c *Combobox) Text() string { return c.term }

// IsOpen reports whether the dropdown is open.
func (c *Combobox) IsOpen() bool { return c.open }

// Filtered returns the options whose formatted form contains the current
// search term as a case-insensitive substring, in original option order.
func (c *Combobox) Filtered() []string {
	term := strings.ToLower(c.term)
	var matches []string
	for _, opt := range c.cfg.Options {
		if strings.Contains(strings.ToLower(c.cfg.FormatOption(opt)), term) {
			matches = append(matches, opt)
		}
	}
	return matches
}

// Focus opens the dropdown.
func (c *Combobox) Focus() {
	c.open = true
}

// Toggle flips the dropdown open state.
func (c *Combobox) Toggle() {
	c.open = !c.open
}

// Input replaces the search term with text and opens the dropdown.
// Typing the input down to empty also resets the committed value — but the
// dropdown stays open to keep suggesting.
func (c *Combobox) Input(text string) {
	c.term = text
	c.open = true

	if text == "" && c.value != "" {
		c.value = ""
		c.cfg.OnChange("")
	}
}

// Select commits an option as the value, shows its formatted form, and
// closes the dropdown.
func (c *Combobox) Select(option string) {
	c.value = option
	c.term = c.cfg.FormatOption(option)
	c.open = false
	c.cfg.OnChange(option)
}

// Enter commits the first filtered option in original list order if any
// match exists; otherwise, with AllowAddNew set and a non-blank term, it
// commits the raw term as a new value.
func (c *Combobox) Enter() {
	if matches := c.Filtered(); len(matches) > 0 {
		c.Select(matches[0])
		return
	}
	if c.cfg.AllowAddNew && strings.TrimSpace(c.term) != "" {
		c.AddNew()
	}
}

// AddNew commits the trimmed search term verbatim as the value. Blank
// terms are rejected.
func (c *Combobox) AddNew() {
	trimmed := strings.TrimSpace(c.term)
	if trimmed == "" {
		return
	}
	c.value = trimmed
	c.term = trimmed
	c.open = false
	c.cfg.OnChange(trimmed)
}

// Clear resets the value to empty and closes the dropdown.
func (c *Combobox) Clear() {
	c.value = ""
	c.term = ""
	c.open = false
	c.cfg.OnChange("")
}

// Dismiss handles a defocus event — a pointer-down outside the component
// or Escape. An uncommitted partial search is discarded: the visible text
// reverts to the committed value's formatted form (or empty), and the
// dropdown closes.
func (c *Combobox) Dismiss() {
	c.open = false
	if c.value != "" {
		c.term = c.cfg.FormatOption(c.value)
	} else {
		c.term = ""
	}
}

// SetValue sets the committed value programmatically (e.g. a pre-fill from
// a metadata suggestion). The visible text follows only while the dropdown
// is closed, so an in-progress search is never clobbered.
func (c *Combobox) SetValue(value string) {
	c.value = value
	if !c.open {
		if value != "" {
			c.term = c.cfg.FormatOption(value)
		} else {
			c.term = ""
		}
	}
	c.cfg.OnChange(value)
}

// CanAddNew reports whether the add-new affordance should be offered:
// nothing matches, adding is enabled, and the term is non-blank.
func (c *Combobox) CanAddNew() bool {
	return c.cfg.AllowAddNew && len(c.Filtered()) == 0 && strings.TrimSpace(c.term) != ""
}

// EmptyMessage returns the neutral empty-state text shown when no options
// match and add-new is not on offer.
func (c *Combobox) EmptyMessage() string {
	if c.cfg.AllowAddNew {
		return "Type to search or add new"
	}
	return "No options found"
}
