package s3

import (
	"context"
	"testing"
	"time"
)

func TestDescribeBeforeInit(t *testing.T) {
	t.Parallel()

	gw := New(nil, Config{Bucket: "files"})
	if gw.Name() != "s3" {
		t.Fatalf("name = %q", gw.Name())
	}
	if gw.Describe(context.Background()).Available {
		t.Fatalf("available before init")
	}
}

func TestNewDefaultsLinkExpiry(t *testing.T) {
	t.Parallel()

	gw := New(nil, Config{Bucket: "files"})
	if gw.cfg.LinkExpiry != 24*time.Hour {
		t.Fatalf("link expiry = %v, want 24h", gw.cfg.LinkExpiry)
	}

	gw = New(nil, Config{Bucket: "files", LinkExpiry: time.Minute})
	if gw.cfg.LinkExpiry != time.Minute {
		t.Fatalf("link expiry = %v, want 1m", gw.cfg.LinkExpiry)
	}
}

func TestInitRequiresBucket(t *testing.T) {
	t.Parallel()

	gw := New(nil, Config{})
	if err := gw.Init(context.Background()); err == nil {
		t.Fatalf("init accepted empty bucket")
	}
	if gw.Describe(context.Background()).Available {
		t.Fatalf("available after failed init")
	}
}
