// Package labels matches UI text against a locale table instead of inline
// string literals. The default table is embedded; a YAML file with the same
// shape can replace or extend it.
package labels

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var defaultTable []byte

// Table is the set of labels for one locale.
type Table struct {
	HomeTab             []string `yaml:"home_tab"`
	HomeTabIDs          []string `yaml:"home_tab_ids"`
	Refresh             []string `yaml:"refresh"`
	RefreshIDs          []string `yaml:"refresh_ids"`
	RefreshDialogTitles []string `yaml:"refresh_dialog_titles"`
	Close               []string `yaml:"close"`
	CancelOnly          []string `yaml:"cancel_only"`
	InProgress          []string `yaml:"in_progress"`
	CrashDialogTitles   []string `yaml:"crash_dialog_titles"`
	CrashReporters      []string `yaml:"crash_reporters"`
	HostTitleHints      []string `yaml:"host_title_hints"`
}

// File is the on-disk layout of a label table.
type File struct {
	Locales map[string]Table `yaml:"locales"`
}

// Matcher answers label questions for the selected locales.
type Matcher struct {
	locales []string
	merged  Table
}

// Default returns a matcher over every locale of the embedded table.
func Default() *Matcher {
	m, err := New(defaultTable, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded label table is invalid: %v", err))
	}

	return m
}

// Load reads a label file from path. An empty path selects the embedded table.
func Load(path string, locales []string) (*Matcher, error) {
	if path == "" {
		return New(defaultTable, locales)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	return New(data, locales)
}

// New builds a matcher from YAML data. A nil or empty locales slice selects
// every locale in the data.
func New(data []byte, locales []string) (*Matcher, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse label table: %w", err)
	}

	if len(f.Locales) == 0 {
		return nil, fmt.Errorf("label table defines no locales")
	}

	if len(locales) == 0 {
		for code := range f.Locales {
			locales = append(locales, code)
		}

		sort.Strings(locales)
	}

	m := &Matcher{}

	for _, code := range locales {
		t, ok := f.Locales[code]
		if !ok {
			return nil, fmt.Errorf("locale %q not found in label table", code)
		}

		m.locales = append(m.locales, code)
		m.merge(t)
	}

	return m, nil
}

func (m *Matcher) merge(t Table) {
	m.merged.HomeTab = appendNormalized(m.merged.HomeTab, t.HomeTab)
	m.merged.HomeTabIDs = append(m.merged.HomeTabIDs, t.HomeTabIDs...)
	m.merged.Refresh = appendNormalized(m.merged.Refresh, t.Refresh)
	m.merged.RefreshIDs = append(m.merged.RefreshIDs, t.RefreshIDs...)
	m.merged.RefreshDialogTitles = appendNormalized(m.merged.RefreshDialogTitles, t.RefreshDialogTitles)
	m.merged.Close = appendNormalized(m.merged.Close, t.Close)
	m.merged.CancelOnly = appendNormalized(m.merged.CancelOnly, t.CancelOnly)
	m.merged.InProgress = appendNormalized(m.merged.InProgress, t.InProgress)
	m.merged.CrashDialogTitles = appendNormalized(m.merged.CrashDialogTitles, t.CrashDialogTitles)
	m.merged.CrashReporters = appendNormalized(m.merged.CrashReporters, t.CrashReporters)
	m.merged.HostTitleHints = appendNormalized(m.merged.HostTitleHints, t.HostTitleHints)
}

func appendNormalized(dst, src []string) []string {
	for _, s := range src {
		if n := Normalize(s); n != "" {
			dst = append(dst, n)
		}
	}

	return dst
}

// Locales returns the locale codes this matcher was built from.
func (m *Matcher) Locales() []string {
	return append([]string(nil), m.locales...)
}

// Normalize folds text for comparison: lower case, no accents, no '&'
// accelerators, collapsed whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.ReplaceAll(folded, "&", "")
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// IsHomeTab reports whether a tab with this text or automation id is the home tab.
func (m *Matcher) IsHomeTab(text, automationID string) bool {
	return containsAny(Normalize(text), m.merged.HomeTab) || idMatches(automationID, m.merged.HomeTabIDs)
}

// IsRefresh reports whether a button with this text or automation id triggers a refresh.
func (m *Matcher) IsRefresh(text, automationID string) bool {
	return equalsAny(Normalize(text), m.merged.Refresh) || idMatches(automationID, m.merged.RefreshIDs)
}

// IsRefreshDialogTitle reports whether a window title belongs to the refresh progress dialog.
func (m *Matcher) IsRefreshDialogTitle(title string) bool {
	return containsAny(Normalize(title), m.merged.RefreshDialogTitles)
}

// IsClose reports whether a button label dismisses a finished dialog.
func (m *Matcher) IsClose(label string) bool {
	return equalsAny(Normalize(label), m.merged.Close)
}

// IsCancelOnly reports whether a button label means the dialog cannot be closed yet.
func (m *Matcher) IsCancelOnly(label string) bool {
	return equalsAny(Normalize(label), m.merged.CancelOnly)
}

// InProgress returns the first in-progress marker found in content.
func (m *Matcher) InProgress(content string) (string, bool) {
	n := Normalize(content)
	for _, marker := range m.merged.InProgress {
		if strings.Contains(n, marker) {
			return marker, true
		}
	}

	return "", false
}

// IsCrashDialogTitle reports whether a window title belongs to an embedded
// rendering engine failure dialog. The title must start with a known pattern;
// a pattern further into the title does not count.
func (m *Matcher) IsCrashDialogTitle(title string) bool {
	return hasPrefixAny(Normalize(title), m.merged.CrashDialogTitles)
}

// IsCrashReporter reports whether an executable name belongs to a process
// that raises crash dialogs, such as the error reporting service.
func (m *Matcher) IsCrashReporter(exe string) bool {
	return equalsAny(Normalize(exe), m.merged.CrashReporters)
}

// IsHostTitle reports whether a window title carries a host application hint.
func (m *Matcher) IsHostTitle(title string) bool {
	return containsAny(Normalize(title), m.merged.HostTitleHints)
}

func equalsAny(s string, candidates []string) bool {
	if s == "" {
		return false
	}

	for _, c := range candidates {
		if s == c {
			return true
		}
	}

	return false
}

func containsAny(s string, candidates []string) bool {
	if s == "" {
		return false
	}

	for _, c := range candidates {
		if strings.Contains(s, c) {
			return true
		}
	}

	return false
}

func hasPrefixAny(s string, candidates []string) bool {
	if s == "" {
		return false
	}

	for _, c := range candidates {
		if strings.HasPrefix(s, c) {
			return true
		}
	}

	return false
}

// Automation ids are stable identifiers and compare exactly.
func idMatches(id string, ids []string) bool {
	if id == "" {
		return false
	}

	for _, candidate := range ids {
		if id == candidate {
			return true
		}
	}

	return false
}
