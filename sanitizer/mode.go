package sanitizer

import (
	"errors"
	"fmt"
)

// Mode is one of the mutually exclusive run modes, ordered from least to most destructive.
type Mode int

const (
	ModeNormal Mode = iota
	ModePatternsOnly
	ModeRecentOnly
	ModeProtectedBulk
	ModeFullWipe
	ModeSchemaReset
)

var modeNames = map[Mode]string{
	ModeNormal:        "normal",
	ModePatternsOnly:  "patternsOnly",
	ModeRecentOnly:    "recentOnly",
	ModeProtectedBulk: "protectedBulk",
	ModeFullWipe:      "fullWipe",
	ModeSchemaReset:   "schemaReset",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}

	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// Destructive reports whether the mode deletes documents regardless of whether they look like test data.
func (m Mode) Destructive() bool {
	return m == ModeProtectedBulk || m == ModeFullWipe || m == ModeSchemaReset
}

// Plan returns the strategies the mode executes, in order.
func (m Mode) Plan() []Strategy {
	switch m {
	case ModeNormal:
		return []Strategy{StrategyPattern, StrategyRecency, StrategyOrphan}
	case ModePatternsOnly:
		return []Strategy{StrategyPattern}
	case ModeRecentOnly:
		return []Strategy{StrategyRecency, StrategyOrphan}
	case ModeProtectedBulk:
		return []Strategy{StrategyProtectedBulk}
	case ModeFullWipe:
		return []Strategy{StrategyFullWipe}
	case ModeSchemaReset:
		return []Strategy{StrategySchemaReset}
	default:
		return nil
	}
}

// ParseMode returns the Mode with the given name.
func ParseMode(name string) (Mode, error) {
	for mode, modeName := range modeNames {
		if modeName == name {
			return mode, nil
		}
	}

	return 0, errors.Join(ErrInvalidMode, fmt.Errorf("%q", name))
}

// ModeFlags are the mode switches of an invocation. At most one may be set; none selects ModeNormal.
type ModeFlags struct {
	PatternsOnly     bool
	RecentOnly       bool
	Nuclear          bool
	TotalWipe        bool
	ResetCollections bool
}

// SelectMode resolves the switches to exactly one Mode.
func SelectMode(flags ModeFlags) (Mode, error) {
	selected := make([]Mode, 0, 1)

	for _, candidate := range []struct {
		set  bool
		mode Mode
	}{
		{flags.PatternsOnly, ModePatternsOnly},
		{flags.RecentOnly, ModeRecentOnly},
		{flags.Nuclear, ModeProtectedBulk},
		{flags.TotalWipe, ModeFullWipe},
		{flags.ResetCollections, ModeSchemaReset},
	} {
		if candidate.set {
			selected = append(selected, candidate.mode)
		}
	}

	switch len(selected) {
	case 0:
		return ModeNormal, nil
	case 1:
		return selected[0], nil
	default:
		return 0, errors.Join(ErrConflictingModes, fmt.Errorf("%v", selected))
	}
}
