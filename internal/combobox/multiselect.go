package combobox

import "strings"

// MultiConfig configures a multi-select combobox.
type MultiConfig struct {
	// Options is the known vocabulary, in display order.
	Options []string

	// OnChange is invoked with the full selection whenever it changes.
	OnChange func(values []string)

	// OnNewValueWarning is invoked when a committed value is absent from
	// Options (case-insensitive). The append proceeds regardless; callers
	// use this to surface "this is a new topic" messaging without blocking.
	OnNewValueWarning func(value string)
}

// MultiSelect generalizes the combobox to a set of chosen values with
// removable chips. Already-selected options are excluded from filtering.
type MultiSelect struct {
	cfg    MultiConfig
	values []string
	term   string
	open   bool
}

// NewMulti creates a multi-select combobox with defaulted callbacks.
func NewMulti(cfg MultiConfig) *MultiSelect {
	if cfg.OnChange == nil {
		cfg.OnChange = func([]string) {}
	}
	if cfg.OnNewValueWarning == nil {
		cfg.OnNewValueWarning = func(string) {}
	}
	return &MultiSelect{cfg: cfg}
}

// Values returns a copy of the current selection in pick order.
func (m *MultiSelect) Values() []string {
	out := make([]string, len(m.values))
	copy(out, m.values)
	return out
}

// Text returns the visible input text.
func (m *MultiSelect) Text() string { return m.term }

// IsOpen reports whether the dropdown is open.
func (m *MultiSelect) IsOpen() bool { return m.open }

// Filtered returns unselected options containing the search term as a
// case-insensitive substring, in original option order.
func (m *MultiSelect) Filtered() []string {
	term := strings.ToLower(m.term)
	var matches []string
	for _, opt := range m.cfg.Options {
		if m.selected(opt) {
			continue
		}
		if strings.Contains(strings.ToLower(opt), term) {
			matches = append(matches, opt)
		}
	}
	return matches
}

// Focus opens the dropdown.
func (m *MultiSelect) Focus() {
	m.open = true
}

// Toggle flips the dropdown open state.
func (m *MultiSelect) Toggle() {
	m.open = !m.open
}

// Input replaces the search term with text and opens the dropdown.
func (m *MultiSelect) Input(text string) {
	m.term = text
	m.open = true
}

// Select appends an option to the selection and clears the search term.
// The dropdown stays open so further picks remain one keystroke away.
func (m *MultiSelect) Select(option string) {
	m.values = append(m.values, option)
	m.term = ""
	m.cfg.OnChange(m.Values())
}

// Enter appends the first filtered option in original list order if any
// match exists; otherwise a non-blank term is committed as a new value.
func (m *MultiSelect) Enter() {
	if matches := m.Filtered(); len(matches) > 0 {
		m.Select(matches[0])
		return
	}
	if strings.TrimSpace(m.term) != "" {
		m.AddNew()
	}
}

// AddNew commits the trimmed search term as a value. A term absent from
// the options (case-insensitive) additionally fires OnNewValueWarning;
// one already in the selection is not appended twice.
func (m *MultiSelect) AddNew() {
	trimmed := strings.TrimSpace(m.term)
	if trimmed == "" {
		return
	}

	if !ContainsFold(m.cfg.Options, trimmed) {
		m.cfg.OnNewValueWarning(trimmed)
	}

	if !m.selected(trimmed) {
		m.values = append(m.values, trimmed)
		m.cfg.OnChange(m.Values())
	}

	m.term = ""
	m.open = false
}

// Remove dismisses a chip, independent of dropdown state.
func (m *MultiSelect) Remove(value string) {
	kept := m.values[:0:0]
	for _, v := range m.values {
		if v != value {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(m.values) {
		return
	}
	m.values = kept
	m.cfg.OnChange(m.Values())
}

// Dismiss handles a defocus event: the in-progress search term is
// discarded and the dropdown closes. The selection is untouched.
func (m *MultiSelect) Dismiss() {
	m.open = false
	m.term = ""
}

// EmptyMessage returns the empty-state text when nothing matches and no
// term is pending.
func (m *MultiSelect) EmptyMessage() string {
	if len(m.values) > 0 {
		return "All options selected"
	}
	return "No options found"
}

func (m *MultiSelect) selected(value string) bool {
	for _, v := range m.values {
		if v == value {
			return true
		}
	}
	return false
}

// ContainsFold reports whether values contains s compared case-insensitively.
func ContainsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
