package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fileferry/ferry/internal/relay"
)

// categoryOf reports which file payload the message carries. Messages without
// a supported payload return ok=false and are ignored by the intake loop.
func categoryOf(msg *tgbotapi.Message) (relay.Category, bool) {
	switch {
	case msg == nil:
		return "", false
	case msg.Document != nil:
		return relay.CategoryDocument, true
	case len(msg.Photo) > 0:
		return relay.CategoryPhoto, true
	case msg.Video != nil:
		return relay.CategoryVideo, true
	case msg.Audio != nil:
		return relay.CategoryAudio, true
	case msg.Voice != nil:
		return relay.CategoryVoice, true
	default:
		return "", false
	}
}

// DescriptorFromMessage maps one inbound message to a transfer descriptor.
// Pure mapping, no I/O. Calling it with a category the message does not carry
// is a programming error and panics.
func DescriptorFromMessage(msg *tgbotapi.Message, cat relay.Category) relay.FileDescriptor {
	switch cat {
	case relay.CategoryDocument:
		doc := msg.Document
		if doc == nil {
			panic("telegram: document descriptor requested for message without document")
		}
		name := doc.FileName
		if name == "" {
			name = "document"
		}
		return relay.FileDescriptor{
			SourceHandle: doc.FileID,
			DisplayName:  name,
			DeclaredSize: declaredSize(doc.FileSize),
			Category:     cat,
		}
	case relay.CategoryPhoto:
		if len(msg.Photo) == 0 {
			panic("telegram: photo descriptor requested for message without photo")
		}
		photo := pickPhoto(msg.Photo)
		return relay.FileDescriptor{
			SourceHandle: photo.FileID,
			DisplayName:  fmt.Sprintf("photo_%s.jpg", photo.FileID),
			DeclaredSize: declaredSize(photo.FileSize),
			Category:     cat,
		}
	case relay.CategoryVideo:
		video := msg.Video
		if video == nil {
			panic("telegram: video descriptor requested for message without video")
		}
		name := video.FileName
		if name == "" {
			name = fmt.Sprintf("video_%s.mp4", video.FileID)
		}
		return relay.FileDescriptor{
			SourceHandle: video.FileID,
			DisplayName:  name,
			DeclaredSize: declaredSize(video.FileSize),
			Category:     cat,
		}
	case relay.CategoryAudio:
		audio := msg.Audio
		if audio == nil {
			panic("telegram: audio descriptor requested for message without audio")
		}
		name := audio.FileName
		if name == "" {
			name = fmt.Sprintf("audio_%s.mp3", audio.FileID)
		}
		return relay.FileDescriptor{
			SourceHandle: audio.FileID,
			DisplayName:  name,
			DeclaredSize: declaredSize(audio.FileSize),
			Category:     cat,
		}
	case relay.CategoryVoice:
		voice := msg.Voice
		if voice == nil {
			panic("telegram: voice descriptor requested for message without voice")
		}
		return relay.FileDescriptor{
			SourceHandle: voice.FileID,
			DisplayName:  fmt.Sprintf("voice_%s.ogg", voice.FileID),
			DeclaredSize: declaredSize(voice.FileSize),
			Category:     cat,
		}
	default:
		panic(fmt.Sprintf("telegram: unknown file category %q", cat))
	}
}

// pickPhoto selects the highest-resolution rendition of a photo.
func pickPhoto(items []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := items[0]
	for _, item := range items[1:] {
		if item.FileSize > best.FileSize {
			best = item
			continue
		}
		if item.Width*item.Height > best.Width*best.Height {
			best = item
		}
	}
	return best
}

// declaredSize converts the wire size field. Telegram omits the byte count
// for some media; zero means unknown, not empty.
func declaredSize(n int) int64 {
	if n > 0 {
		return int64(n)
	}
	return relay.SizeUnknown
}
