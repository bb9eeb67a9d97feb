package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fileferry/ferry/internal/backend"
	"github.com/fileferry/ferry/internal/relay"
)

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// humanSize renders a byte count the way people read it.
func humanSize(n int64) string {
	switch {
	case n < kib:
		return fmt.Sprintf("%d B", n)
	case n < mib:
		return fmt.Sprintf("%.1f KB", float64(n)/kib)
	case n < gib:
		return fmt.Sprintf("%.1f MB", float64(n)/mib)
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/gib)
	}
}

func welcomeText(maxBytes int64) string {
	return strings.Join([]string{
		"🚀 Welcome to Fast Download Bot!",
		"",
		"📤 Forward any file to me and I'll provide:",
		"• Direct download link",
		"• Faster download speeds",
		"• File information",
		"",
		"Supported files: Documents, Photos, Videos, Audio, Voice messages",
		fmt.Sprintf("Max file size: %dMB", maxBytes/mib),
	}, "\n")
}

func helpText() string {
	return strings.Join([]string{
		"📋 How to use this bot:",
		"",
		"1. Forward any file to this bot",
		"2. Wait for processing",
		"3. Get your direct download link",
		"",
		"Commands:",
		"/start - Start the bot",
		"/help - Show this help message",
		"/status - Show storage backend status",
	}, "\n")
}

func statusText(name string, status backend.Status, stagedCount int, stagedBytes int64, version string) string {
	availability := "available ✅"
	if !status.Available {
		availability = "unavailable ❌"
	}
	lines := []string{
		fmt.Sprintf("Backend: %s (%s)", name, availability),
	}
	if status.Account != "" {
		lines = append(lines, fmt.Sprintf("Account: %s", status.Account))
	}
	lines = append(lines,
		fmt.Sprintf("Staged files: %d (%s)", stagedCount, humanSize(stagedBytes)),
		fmt.Sprintf("Version: %s", version),
	)
	return strings.Join(lines, "\n")
}

const processingText = "⏳ Processing your file..."

// successText is sent with Markdown parse mode and link previews disabled.
func successText(displayName string, byteLength int64, url string) string {
	return strings.Join([]string{
		"✅ File processed successfully!",
		"",
		fmt.Sprintf("📄 *File:* `%s`", displayName),
		fmt.Sprintf("📊 *Size:* %s", humanSize(byteLength)),
		fmt.Sprintf("🔗 *Direct Link:* [Download Here](%s)", url),
		"",
		"💡 _Click the link for faster download_",
	}, "\n")
}

// failureText maps a transfer error kind to the message shown to the sender.
// Causes stay in the logs.
func failureText(err error, maxBytes int64) string {
	switch {
	case errors.Is(err, relay.ErrFileTooLarge):
		return fmt.Sprintf("❌ File too large! Maximum size: %dMB", maxBytes/mib)
	case errors.Is(err, relay.ErrBackendUnavailable):
		return "❌ Storage backend is not available right now. Please try again later."
	case errors.Is(err, relay.ErrFetchFailed):
		return "❌ Failed to download file. Please try again."
	case errors.Is(err, relay.ErrUploadFailed):
		return "❌ Upload to storage failed. Please try again."
	default:
		return "❌ An error occurred while processing your file."
	}
}

const rateLimitedText = "⏳ Too many files at once. Please wait a minute and try again."
