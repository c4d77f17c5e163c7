package contentdate_test

import (
	"testing"
	"time"

	"dripfeed/internal/contentdate"
)

func TestFilenameExtractor(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "iso date", path: "/inbox/2024-01-15_entry_uid-abcd.md", want: "2024-01-15"},
		{name: "underscore date", path: "2023_06_02_call_uid-xyz1.m4a", want: "2023-06-02"},
		{name: "compact date", path: "journal-20240229-uid-feb4.txt", want: "2024-02-29"},
		{name: "date mid-name", path: "scan of 2021-12-31 uid-nye1.pdf", want: "2021-12-31"},
		{name: "invalid month skipped", path: "2024-13-01_then_2024-03-01_uid-ok12.md", want: "2024-03-01"},
		{name: "no date", path: "random_uid-none.md", wantErr: true},
		{name: "implausible year", path: "0001-01-01_uid-old1.md", wantErr: true},
	}

	extractor := contentdate.FilenameExtractor{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractor.ExtractDate(tc.path)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ExtractDate(%q) = %v, want error", tc.path, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractDate(%q): %v", tc.path, err)
			}
			if got.Format(time.DateOnly) != tc.want {
				t.Fatalf("ExtractDate(%q) = %s, want %s", tc.path, got.Format(time.DateOnly), tc.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("ExtractDate(%q) not in UTC", tc.path)
			}
		})
	}
}

func TestDayTruncation(t *testing.T) {
	ts := time.Date(2024, 5, 17, 23, 45, 12, 999, time.FixedZone("X", 3*3600))
	day := contentdate.Day(ts)
	if want := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC); !day.Equal(want) {
		t.Fatalf("Day = %v, want %v", day, want)
	}
}
