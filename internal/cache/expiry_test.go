package cache

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpireTime(t *testing.T) {
	date := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	dateHeader := date.Format(http.TimeFormat)

	tests := []struct {
		name   string
		header http.Header
		want   int64
	}{
		{
			name:   "max-age from cache-control",
			header: http.Header{"Date": {dateHeader}, "Cache-Control": {"public, max-age=60"}},
			want:   date.UnixMilli() + 60_000 + 1,
		},
		{
			name:   "default max age without cache-control",
			header: http.Header{"Date": {dateHeader}},
			want:   date.UnixMilli() + DefaultMaxAge.Milliseconds() + 1,
		},
		{
			name:   "malformed max-age falls back to default",
			header: http.Header{"Date": {dateHeader}, "Cache-Control": {"max-age=soon"}},
			want:   date.UnixMilli() + DefaultMaxAge.Milliseconds() + 1,
		},
		{
			name:   "quoted max-age",
			header: http.Header{"Date": {dateHeader}, "Cache-Control": {`max-age="5"`}},
			want:   date.UnixMilli() + 5_000 + 1,
		},
		{
			name:   "zero max-age",
			header: http.Header{"Date": {dateHeader}, "Cache-Control": {"no-cache, MAX-AGE=0"}},
			want:   date.UnixMilli() + 1,
		},
		{
			name:   "missing date",
			header: http.Header{"Cache-Control": {"max-age=60"}},
			want:   0,
		},
		{
			name:   "unparsable date",
			header: http.Header{"Date": {"yesterday"}},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpireTime(tt.header, DefaultMaxAge))
		})
	}
}
