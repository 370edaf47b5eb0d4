package trust

import "slices"

// Request describes one trust decision to put to the user.
type Request struct {
	Root        string
	Description string
	IsBroad     bool
	Risk        RiskReport
}

// Decisions is the persisted form of trust answers. Entries are doublestar
// patterns; a pattern also covers everything below it.
type Decisions struct {
	Trusted []string `yaml:"trusted,omitempty"`
	Denied  []string `yaml:"denied,omitempty"`
}

// Clone returns a deep copy.
func (d *Decisions) Clone() *Decisions {
	if d == nil {
		return &Decisions{}
	}
	return &Decisions{
		Trusted: slices.Clone(d.Trusted),
		Denied:  slices.Clone(d.Denied),
	}
}

// Deduplicate sorts both lists and removes repeated entries.
func (d *Decisions) Deduplicate() {
	slices.Sort(d.Trusted)
	d.Trusted = slices.Compact(d.Trusted)
	slices.Sort(d.Denied)
	d.Denied = slices.Compact(d.Denied)
}

// Store persists and retrieves trust decisions.
type Store interface {
	Load() (*Decisions, error)
	Save(decisions *Decisions) error
	ConfigPath() string
}

// Prompter handles interactive trust decisions.
type Prompter interface {
	IsInteractive() bool
	PromptForTrust(req Request) (trusted bool, always bool, err error)
	FormatNonInteractiveError(req Request) error
}
