package chat

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateNewSession(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		chatType string
		wantErr  bool
	}{
		{"valid", "Help with order #42", TypeOrder, false},
		{"missing title", "", TypeGeneral, true},
		{"whitespace title", "   ", TypeGeneral, true},
		{"missing chat type", "Help", "", true},
		{"unknown chat type", "Help", "billing", true},
		{"title too long", strings.Repeat("x", MaxTitleChars+1), TypeGeneral, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewSession(tt.title, tt.chatType)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		msgType    string
		attachment string
		wantErr    bool
	}{
		{"text message", "hello", MessageText, "", false},
		{"attachment only", "", MessageFile, "/uploads/a.pdf", false},
		{"both empty", "", MessageText, "", true},
		{"whitespace only", "   ", MessageText, "", true},
		{"whitespace with attachment", "  ", MessageImage, "/uploads/a.png", false},
		{"unknown type", "hello", "video", "", true},
		{"oversized", strings.Repeat("a", MaxContentBytes+1), MessageText, "", true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), MessageText, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.content, tt.msgType, tt.attachment)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTruncatePreview(t *testing.T) {
	short := "brief"
	if got := TruncatePreview(short); got != short {
		t.Errorf("short content changed: %q", got)
	}

	long := strings.Repeat("m", PreviewLength+10)
	got := TruncatePreview(long)
	if len([]rune(got)) != PreviewLength+3 {
		t.Errorf("expected %d runes, got %d", PreviewLength+3, len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}

	// Multi-byte runes must not be split.
	wide := strings.Repeat("日", PreviewLength+1)
	got = TruncatePreview(wide)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if strings.Count(got, "日") != PreviewLength {
		t.Errorf("expected %d runes kept, got %d", PreviewLength, strings.Count(got, "日"))
	}
}
