package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGrid_Query_ExtractDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{name: "full month with suffix", text: "What was the interval read on August 10th, 2025?", want: "2025-08-10", wantOK: true},
		{name: "full month without comma", text: "august 9 2025 register reads", want: "2025-08-09", wantOK: true},
		{name: "abbreviated month", text: "show aug 5th 2025", want: "2025-08-05", wantOK: true},
		{name: "day before month", text: "data for 7th August 2025", want: "2025-08-07", wantOK: true},
		{name: "iso date", text: "value on 2025-08-04?", want: "2025-08-04", wantOK: true},
		{name: "iso single digit", text: "2025-08-4", want: "2025-08-04", wantOK: true},
		{name: "outside window still extracted", text: "August 15th, 2025", want: "2025-08-15", wantOK: true},
		{name: "first pattern wins", text: "august 6 2025 or 2025-08-09", want: "2025-08-06", wantOK: true},
		{name: "no year", text: "august 10", wantOK: false},
		{name: "other month", text: "July 10, 2025", wantOK: false},
		{name: "day out of range", text: "August 45, 2025", wantOK: false},
		{name: "day zero", text: "2025-08-00", wantOK: false},
		{name: "day embedded in longer number", text: "110th August 2025", wantOK: false},
		{name: "day past month end", text: "August 32nd, 2025", wantOK: false},
		{name: "three digit day", text: "August 100th, 2025", wantOK: false},
		{name: "iso three digit day", text: "2025-08-100", wantOK: false},
		{name: "empty", text: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractDate(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.want, got.Format(DateLayout))
			}
		})
	}
}

func TestGrid_Query_DateMention(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text        string
		wantDay     int
		wantMention bool
	}{
		{text: "110th August 2025", wantDay: 110, wantMention: true},
		{text: "August 32nd, 2025", wantDay: 32, wantMention: true},
		{text: "August 100th, 2025", wantDay: 100, wantMention: true},
		{text: "aug 7 2025", wantDay: 7, wantMention: true},
		{text: "August 32nd, 2025 or 2025-08-05", wantDay: 32, wantMention: true},
		{text: "last 7 days", wantMention: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			d, ok := DateMention(tt.text)
			require.Equal(t, tt.wantMention, ok)
			require.Equal(t, tt.wantDay, d)
		})
	}
}

func TestGrid_Query_InWindow(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2025, time.August, d, 13, 0, 0, 0, time.UTC) }
	require.False(t, InWindow(day(3)))
	require.True(t, InWindow(day(4)))
	require.True(t, InWindow(day(8)))
	require.True(t, InWindow(day(11)))
	require.False(t, InWindow(day(12)))
}

func TestGrid_Query_ExtractZone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		want   ZoneRef
		wantOK bool
	}{
		{
			name:   "known id",
			text:   "zone 3668467f-3f94-4486-bcc1-cbb1aa16d015 interval reads",
			want:   ZoneRef{ID: "3668467f-3f94-4486-bcc1-cbb1aa16d015", Name: "Bronx", ByID: true},
			wantOK: true,
		},
		{
			name:   "upper case id",
			text:   "ZONE 427917A2-E104-455F-8F29-36CEF60A86C6",
			want:   ZoneRef{ID: "427917a2-e104-455f-8f29-36cef60a86c6", Name: "Brooklyn", ByID: true},
			wantOK: true,
		},
		{
			name:   "unknown id",
			text:   "what about 0000aaaa-1111-2222-3333-444455556666",
			want:   ZoneRef{ID: "0000aaaa-1111-2222-3333-444455556666", Name: "Zone-0000aaaa", ByID: true},
			wantOK: true,
		},
		{
			name:   "id beats name",
			text:   "brooklyn vs 3668467f-3f94-4486-bcc1-cbb1aa16d015",
			want:   ZoneRef{ID: "3668467f-3f94-4486-bcc1-cbb1aa16d015", Name: "Bronx", ByID: true},
			wantOK: true,
		},
		{
			name:   "name",
			text:   "offline collectors in Queens",
			want:   ZoneRef{ID: "efba1047-90d1-4f6f-a5c9-a4b40176e150", Name: "Queens"},
			wantOK: true,
		},
		{
			name:   "keyword order",
			text:   "compare manhattan with brooklyn",
			want:   ZoneRef{ID: "427917a2-e104-455f-8f29-36cef60a86c6", Name: "Brooklyn"},
			wantOK: true,
		},
		{
			name:   "island alone",
			text:   "anything down on the island?",
			want:   ZoneRef{ID: "6f5a70ef-dc5c-4efa-83ca-efa1590873b7", Name: "Staten Island"},
			wantOK: true,
		},
		{name: "none", text: "how many collectors are online", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractZone(tt.text)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
