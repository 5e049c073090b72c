package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTime(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"00:30": "12:30 AM",
		"13:15": "1:15 PM",
		"12:00": "12:00 PM",
		"09:05": "9:05 AM",
		"23:59": "11:59 PM",
		"noon":  "noon",
		"25:00": "25:00",
		"":      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Time(in), in)
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1 hr", Duration("1"))
	assert.Equal(t, "2 hrs", Duration("2"))
	assert.Equal(t, "0.5 hrs", Duration("0.5"))
	assert.Equal(t, "1.0 hrs", Duration("1.0"))
	assert.Equal(t, "", Duration(""))
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "February", MonthName(time.February))
	assert.Equal(t, "", MonthName(time.Month(13)))
	assert.Equal(t, "Sunday", DayName(time.Sunday))
	assert.Equal(t, "7:00 AM", Hour(7))
	assert.Equal(t, "9:00 PM", Hour(21))
}
