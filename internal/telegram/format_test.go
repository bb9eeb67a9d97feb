package telegram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fileferry/ferry/internal/backend"
	"github.com/fileferry/ferry/internal/relay"
)

func TestHumanSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1048576, "5.0 MB"},
		{1073741824, "1.0 GB"},
		{3221225472, "3.0 GB"},
	}
	for _, tc := range cases {
		if got := humanSize(tc.n); got != tc.want {
			t.Fatalf("humanSize(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestWelcomeTextShowsLimitInMB(t *testing.T) {
	t.Parallel()

	got := welcomeText(2000 * mib)
	if !strings.Contains(got, "Max file size: 2000MB") {
		t.Fatalf("welcome text missing size line:\n%s", got)
	}
}

func TestSuccessTextCarriesNameSizeAndLink(t *testing.T) {
	t.Parallel()

	got := successText("report.pdf", 3*mib, "http://files.example.com/download/report.pdf")
	for _, want := range []string{
		"`report.pdf`",
		"3.0 MB",
		"[Download Here](http://files.example.com/download/report.pdf)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("success text missing %q:\n%s", want, got)
		}
	}
}

func TestFailureText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "too large",
			err:  relay.ErrFileTooLarge,
			want: "❌ File too large! Maximum size: 50MB",
		},
		{
			name: "too large wrapped",
			err:  fmt.Errorf("%w: declared 80MB", relay.ErrFileTooLarge),
			want: "❌ File too large! Maximum size: 50MB",
		},
		{
			name: "backend unavailable",
			err:  fmt.Errorf("%w: mega login refused", relay.ErrBackendUnavailable),
			want: "❌ Storage backend is not available right now. Please try again later.",
		},
		{
			name: "fetch failed",
			err:  fmt.Errorf("%w: connection reset", relay.ErrFetchFailed),
			want: "❌ Failed to download file. Please try again.",
		},
		{
			name: "upload failed",
			err:  fmt.Errorf("%w: bucket gone", relay.ErrUploadFailed),
			want: "❌ Upload to storage failed. Please try again.",
		},
		{
			name: "unclassified",
			err:  fmt.Errorf("something odd"),
			want: "❌ An error occurred while processing your file.",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := failureText(tc.err, 50*mib); got != tc.want {
				t.Fatalf("failureText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStatusTextHidesEmptyAccount(t *testing.T) {
	t.Parallel()

	got := statusText("local", backend.Status{Available: true}, 2, 3*kib, "v1.2.3")
	if strings.Contains(got, "Account:") {
		t.Fatalf("status text shows empty account:\n%s", got)
	}
	for _, want := range []string{"local", "available ✅", "Staged files: 2 (3.0 KB)", "Version: v1.2.3"} {
		if !strings.Contains(got, want) {
			t.Fatalf("status text missing %q:\n%s", want, got)
		}
	}

	got = statusText("mega", backend.Status{Available: false, Account: "user@example.com"}, 0, 0, "dev")
	if !strings.Contains(got, "unavailable ❌") {
		t.Fatalf("status text missing unavailable marker:\n%s", got)
	}
	if !strings.Contains(got, "Account: user@example.com") {
		t.Fatalf("status text missing account:\n%s", got)
	}
}
