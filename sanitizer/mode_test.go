package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/docstore-sanitizer/sanitizer"
)

func Test_SelectMode(t *testing.T) {
	testCases := []struct {
		name     string
		flags    sanitizer.ModeFlags
		expected sanitizer.Mode
	}{
		{name: "no switch", flags: sanitizer.ModeFlags{}, expected: sanitizer.ModeNormal},
		{name: "patterns only", flags: sanitizer.ModeFlags{PatternsOnly: true}, expected: sanitizer.ModePatternsOnly},
		{name: "recent only", flags: sanitizer.ModeFlags{RecentOnly: true}, expected: sanitizer.ModeRecentOnly},
		{name: "nuclear", flags: sanitizer.ModeFlags{Nuclear: true}, expected: sanitizer.ModeProtectedBulk},
		{name: "total wipe", flags: sanitizer.ModeFlags{TotalWipe: true}, expected: sanitizer.ModeFullWipe},
		{name: "reset collections", flags: sanitizer.ModeFlags{ResetCollections: true}, expected: sanitizer.ModeSchemaReset},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mode, err := sanitizer.SelectMode(tc.flags)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, mode)
		})
	}
}

func Test_SelectMode_WhenSwitchesConflict(t *testing.T) {
	_, err := sanitizer.SelectMode(sanitizer.ModeFlags{PatternsOnly: true, TotalWipe: true})
	assert.ErrorIs(t, err, sanitizer.ErrConflictingModes)

	_, err = sanitizer.SelectMode(sanitizer.ModeFlags{Nuclear: true, TotalWipe: true, ResetCollections: true})
	assert.ErrorIs(t, err, sanitizer.ErrConflictingModes)
}

func Test_Mode_Plan(t *testing.T) {
	assert.Equal(t,
		[]sanitizer.Strategy{sanitizer.StrategyPattern, sanitizer.StrategyRecency, sanitizer.StrategyOrphan},
		sanitizer.ModeNormal.Plan(),
	)
	assert.Equal(t, []sanitizer.Strategy{sanitizer.StrategyRecency, sanitizer.StrategyOrphan}, sanitizer.ModeRecentOnly.Plan())
	assert.Nil(t, sanitizer.Mode(99).Plan())

	assert.False(t, sanitizer.ModeNormal.Destructive())
	assert.True(t, sanitizer.ModeFullWipe.Destructive())
}

func Test_ParseMode(t *testing.T) {
	mode, err := sanitizer.ParseMode("protectedBulk")
	require.NoError(t, err)
	assert.Equal(t, sanitizer.ModeProtectedBulk, mode)
	assert.Equal(t, "protectedBulk", mode.String())

	_, err = sanitizer.ParseMode("everything")
	assert.ErrorIs(t, err, sanitizer.ErrInvalidMode)
	assert.Equal(t, "Mode(99)", sanitizer.Mode(99).String())
}
