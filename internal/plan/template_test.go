package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildTemplateShapes pins the week shape for every accepted number of
// training days. The candidate order Monday, Tuesday, Thursday, Friday, Sunday
// plus the forward-only repair fully determines these.
func TestBuildTemplateShapes(t *testing.T) {
	tests := []struct {
		days int
		want WeeklyTemplate
	}{
		{6, WeeklyTemplate{EasyRun, Intervals, Rest, HillRepeats, TempoRun, LongRun, CrossTraining}},
		{5, WeeklyTemplate{Rest, Intervals, Rest, HillRepeats, TempoRun, LongRun, CrossTraining}},
		{4, WeeklyTemplate{Rest, HillRepeats, Rest, TempoRun, Rest, LongRun, CrossTraining}},
		{3, WeeklyTemplate{Rest, TempoRun, Rest, CrossTraining, Rest, LongRun, Rest}},
	}

	for _, tt := range tests {
		got, err := BuildTemplate(tt.days)
		require.NoError(t, err, "days=%d", tt.days)
		assert.Equal(t, tt.want, got, "days=%d: got %s", tt.days, got)
	}
}

// TestBuildTemplateInvariants checks the template rules for the whole valid
// range: Wednesday rest, 7-days rest count, no adjacent rest Monday..Sunday.
// It also shows that the exhausted-lookup path cannot be reached for 3..6.
func TestBuildTemplateInvariants(t *testing.T) {
	for days := MinTrainingDays; days <= MaxTrainingDays; days++ {
		tmpl, err := BuildTemplate(days)
		require.NoError(t, err, "days=%d", days)

		assert.Equal(t, Rest, tmpl[Wednesday], "days=%d: Wednesday", days)
		assert.Len(t, tmpl.RestDays(), 7-days, "days=%d: rest count", days)
		assert.Equal(t, days, tmpl.TrainingDays())
		for d := Monday; d < Sunday; d++ {
			assert.False(t, tmpl[d] == Rest && tmpl[d+1] == Rest,
				"days=%d: %s and %s both rest", days, d, d+1)
		}
	}
}

func TestBuildTemplateOutOfRange(t *testing.T) {
	for _, days := range []int{-1, 0, 1, 2, 7, 8} {
		_, err := BuildTemplate(days)
		assert.ErrorIs(t, err, ErrInvalidParameter, "days=%d", days)
	}
}

// TestRepairLookupExhausted drives the repair pass with hand-built weeks that
// BuildTemplate never produces, to cover the failure path.
func TestRepairLookupExhausted(t *testing.T) {
	tests := []struct {
		name string
		tmpl WeeklyTemplate
	}{
		{
			name: "no candidate after the pair",
			tmpl: WeeklyTemplate{EasyRun, Intervals, Rest, HillRepeats, Rest, Rest, Rest},
		},
		{
			name: "second day pinned",
			tmpl: WeeklyTemplate{EasyRun, Rest, Rest, HillRepeats, TempoRun, LongRun, CrossTraining},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := tt.tmpl
			err := tmpl.repair()
			if !errors.Is(err, ErrLookupExhausted) {
				t.Fatalf("repair() error = %v, want ErrLookupExhausted", err)
			}
		})
	}
}

// TestRepairSwapsForwardOnly verifies a swap moves the rest day to the first
// later candidate that is not already rest.
func TestRepairSwapsForwardOnly(t *testing.T) {
	tmpl := WeeklyTemplate{Rest, Rest, Rest, Rest, TempoRun, LongRun, CrossTraining}
	require.NoError(t, tmpl.repair())
	assert.Equal(t, WeeklyTemplate{Rest, TempoRun, Rest, CrossTraining, Rest, LongRun, Rest}, tmpl)
}

func TestTemplateDaysAndString(t *testing.T) {
	tmpl, err := BuildTemplate(6)
	require.NoError(t, err)

	days := tmpl.Days()
	require.Len(t, days, 7)
	assert.Equal(t, TemplateDay{Weekday: Monday, Type: EasyRun}, days[0])
	assert.Equal(t, TemplateDay{Weekday: Sunday, Type: CrossTraining}, days[6])
	assert.Equal(t, "Mon=easy_run Tue=intervals Wed=rest Thu=hill_repeats Fri=tempo_run Sat=long_run Sun=cross_training", tmpl.String())
}
