package drive

import (
	"context"
	"testing"
)

func TestDescribeBeforeInit(t *testing.T) {
	t.Parallel()

	gw := New(nil, Config{Auth: AuthOAuth, FolderName: "TelegramFiles"})
	if gw.Name() != "drive" {
		t.Fatalf("name = %q", gw.Name())
	}
	status := gw.Describe(context.Background())
	if status.Available {
		t.Fatalf("available before init")
	}
	if status.Account != "" {
		t.Fatalf("account leaked before auth: %q", status.Account)
	}
}

func TestInitRejectsUnknownAuthMode(t *testing.T) {
	t.Parallel()

	gw := New(nil, Config{Auth: "password"})
	if err := gw.Init(context.Background()); err == nil {
		t.Fatalf("init accepted unknown auth mode")
	}
	if gw.Describe(context.Background()).Available {
		t.Fatalf("available after failed init")
	}
}

func TestInitOAuthRequiresCredentials(t *testing.T) {
	t.Parallel()

	gw := New(nil, Config{Auth: AuthOAuth})
	if err := gw.Init(context.Background()); err == nil {
		t.Fatalf("init accepted empty oauth credentials")
	}
	if gw.Describe(context.Background()).Available {
		t.Fatalf("available after failed init")
	}
}
