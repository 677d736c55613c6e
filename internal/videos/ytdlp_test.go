package videos

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestYTDLPProviderLookup(t *testing.T) {
	provider := NewYTDLPProvider("yt-dlp", time.Second)
	provider.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "yt-dlp" {
			t.Fatalf("unexpected binary %q", binary)
		}
		wantArgs := []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download", "https://example.com"}
		if len(args) != len(wantArgs) {
			t.Fatalf("unexpected args length: got %d want %d", len(args), len(wantArgs))
		}
		for i, arg := range wantArgs {
			if args[i] != arg {
				t.Fatalf("unexpected arg at %d: got %q want %q", i, args[i], arg)
			}
		}
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("expected lookup to carry a deadline")
		}
		return []byte(`{"title":"Example","description":"Desc","thumbnail":"thumb.jpg","duration":212.6}`), nil
	}

	meta, err := provider.Lookup(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if meta.Title != "Example" || meta.Description != "Desc" || meta.Thumbnail != "thumb.jpg" || meta.Duration != 213 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestYTDLPProviderLookupEmptyPayload(t *testing.T) {
	provider := NewYTDLPProvider("yt-dlp", time.Second)
	provider.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte(`{"title":"","description":"","thumbnail":""}`), nil
	}

	if _, err := provider.Lookup(context.Background(), "https://example.com"); !errors.Is(err, ErrEmptyMetadata) {
		t.Fatalf("expected ErrEmptyMetadata, got %v", err)
	}
}

func TestYTDLPProviderLookupErrors(t *testing.T) {
	tests := []struct {
		name string
		out  []byte
		err  error
	}{
		{name: "command failure", err: errors.New("exit status 1")},
		{name: "invalid json", out: []byte("not json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewYTDLPProvider("", 0)
			provider.Run = func(context.Context, string, ...string) ([]byte, error) {
				return tt.out, tt.err
			}
			if _, err := provider.Lookup(context.Background(), "https://example.com"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestYTDLPProviderNil(t *testing.T) {
	var provider *YTDLPProvider
	if _, err := provider.Lookup(context.Background(), "https://example.com"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
