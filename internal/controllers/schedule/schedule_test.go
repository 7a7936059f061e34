package scheduleController

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func minutes(h, m int) int {
	return h*60 + m
}

func TestBuildDayGrid_Fixed(t *testing.T) {
	tests := []struct {
		name   string
		window dayWindow
		want   [][2]int
	}{
		{
			name: "lunch overlap skips to lunch end",
			window: dayWindow{
				mode:        ModeFixed,
				open:        minutes(8, 0),
				close:       minutes(12, 0),
				slotMinutes: 60,
				lunchStart:  minutes(10, 0),
				lunchEnd:    minutes(10, 30),
			},
			want: [][2]int{
				{minutes(8, 0), minutes(9, 0)},
				{minutes(9, 0), minutes(10, 0)},
				{minutes(10, 30), minutes(11, 30)},
			},
		},
		{
			name: "no lunch fills the whole window",
			window: dayWindow{
				mode:        ModeFixed,
				open:        minutes(9, 0),
				close:       minutes(12, 0),
				slotMinutes: 60,
				lunchStart:  -1,
				lunchEnd:    -1,
			},
			want: [][2]int{
				{minutes(9, 0), minutes(10, 0)},
				{minutes(10, 0), minutes(11, 0)},
				{minutes(11, 0), minutes(12, 0)},
			},
		},
		{
			name: "final slot past close is dropped",
			window: dayWindow{
				mode:        ModeFixed,
				open:        minutes(9, 0),
				close:       minutes(10, 30),
				slotMinutes: 60,
				lunchStart:  -1,
				lunchEnd:    -1,
			},
			want: [][2]int{
				{minutes(9, 0), minutes(10, 0)},
			},
		},
		{
			name: "slot ending exactly at lunch start is kept",
			window: dayWindow{
				mode:        ModeFixed,
				open:        minutes(8, 0),
				close:       minutes(14, 0),
				slotMinutes: 120,
				lunchStart:  minutes(12, 0),
				lunchEnd:    minutes(13, 0),
			},
			want: [][2]int{
				{minutes(8, 0), minutes(10, 0)},
				{minutes(10, 0), minutes(12, 0)},
			},
		},
		{
			name: "window too small for one slot",
			window: dayWindow{
				mode:        ModeFixed,
				open:        minutes(9, 0),
				close:       minutes(9, 30),
				slotMinutes: 60,
				lunchStart:  -1,
				lunchEnd:    -1,
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDayGrid(tt.window))
		})
	}
}

func TestBuildDayGrid_Blocks(t *testing.T) {
	t.Run("lunch splits morning and afternoon", func(t *testing.T) {
		got := buildDayGrid(dayWindow{
			mode:       ModeBlocks,
			open:       minutes(8, 0),
			close:      minutes(18, 0),
			lunchStart: minutes(13, 0),
			lunchEnd:   minutes(14, 0),
		})
		assert.Equal(t, [][2]int{
			{minutes(8, 0), minutes(13, 0)},
			{minutes(14, 0), minutes(18, 0)},
		}, got)
	})

	t.Run("no lunch yields one full-day block", func(t *testing.T) {
		got := buildDayGrid(dayWindow{
			mode:       ModeBlocks,
			open:       minutes(8, 0),
			close:      minutes(18, 0),
			lunchStart: -1,
			lunchEnd:   -1,
		})
		assert.Equal(t, [][2]int{{minutes(8, 0), minutes(18, 0)}}, got)
	})

	t.Run("lunch at open drops the morning block", func(t *testing.T) {
		got := buildDayGrid(dayWindow{
			mode:       ModeBlocks,
			open:       minutes(8, 0),
			close:      minutes(18, 0),
			lunchStart: minutes(8, 0),
			lunchEnd:   minutes(9, 0),
		})
		assert.Equal(t, [][2]int{{minutes(9, 0), minutes(18, 0)}}, got)
	})
}

func TestParseClock(t *testing.T) {
	got, err := parseClock("08:30")
	assert.NoError(t, err)
	assert.Equal(t, 510, got)

	_, err = parseClock("8h30")
	assert.Error(t, err)

	_, err = parseClock("")
	assert.Error(t, err)
}
