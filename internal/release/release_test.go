package release

import "testing"

func TestTag(t *testing.T) {
	cases := []struct {
		name    string
		version string
		want    string
	}{
		{"daily-summary-email", "1.0.0", "daily-summary-email-v1.0.0"},
		{"email/daily-summary-email", "2.1.0", "daily-summary-email-v2.1.0"},
	}
	for _, tc := range cases {
		if got := Tag(tc.name, tc.version); got != tc.want {
			t.Fatalf("Tag(%q, %q) = %q, want %q", tc.name, tc.version, got, tc.want)
		}
	}
}

func TestDownloadURL(t *testing.T) {
	got := DownloadURL("https://github.com/acme/templates/", "daily-summary-email-v1.0.0", ArchiveName)
	want := "https://github.com/acme/templates/releases/download/daily-summary-email-v1.0.0/workflow.json.zip"
	if got != want {
		t.Fatalf("DownloadURL = %q, want %q", got, want)
	}
}
