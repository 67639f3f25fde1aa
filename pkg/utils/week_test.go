package utils_test

import (
	"testing"
	"time"

	"github.com/edithx/rewarder/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestSundayWeek(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		date     time.Time
		wantYear int
		wantWeek int
	}{
		{
			name:     "january first is always week one",
			date:     time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC),
			wantYear: 2025,
			wantWeek: 1,
		},
		{
			name:     "first sunday starts week two",
			date:     time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
			wantYear: 2025,
			wantWeek: 2,
		},
		{
			name:     "saturday stays in the previous week",
			date:     time.Date(2025, time.January, 4, 23, 59, 0, 0, time.UTC),
			wantYear: 2025,
			wantWeek: 1,
		},
		{
			name:     "late december rolls into next year",
			date:     time.Date(2024, time.December, 30, 8, 0, 0, 0, time.UTC),
			wantYear: 2025,
			wantWeek: 1,
		},
		{
			name:     "mid year",
			date:     time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
			wantYear: 2024,
			wantWeek: 24,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			year, week := utils.SundayWeek(tt.date)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantWeek, week)
		})
	}
}
