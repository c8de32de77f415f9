package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/iliyamo/hotel-booking/internal/config"
)

type memUploader struct {
	mu    sync.Mutex
	names []string
	fail  string
}

func (u *memUploader) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	if name == u.fail {
		return "", errors.New("quota exceeded")
	}
	b, _ := io.ReadAll(r)
	u.mu.Lock()
	u.names = append(u.names, name)
	u.mu.Unlock()
	return "https://img.test/" + name + "/" + string(b), nil
}

func file(name, content string) ImageFile {
	return ImageFile{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewBufferString(content)), nil
	}}
}

func TestUploadAllKeepsOrder(t *testing.T) {
	up := &memUploader{}
	urls, err := UploadAll(context.Background(), up, []ImageFile{file("a", "1"), file("b", "2"), file("c", "3")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://img.test/a/1", "https://img.test/b/2", "https://img.test/c/3"}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("urls = %v", urls)
		}
	}
}

func TestUploadAllFailsOnAnyError(t *testing.T) {
	up := &memUploader{fail: "b"}
	if _, err := UploadAll(context.Background(), up, []ImageFile{file("a", "1"), file("b", "2")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewCloudinaryUploaderNeedsCredentials(t *testing.T) {
	if _, err := NewCloudinaryUploader(config.ImageConfig{CloudName: "demo"}); err == nil {
		t.Fatal("expected error for missing key and secret")
	}
	if _, err := NewCloudinaryUploader(config.ImageConfig{CloudName: "demo", APIKey: "k", APISecret: "s"}); err != nil {
		t.Fatal(err)
	}
}

func TestUploadParamsLeaveIDToCloudinary(t *testing.T) {
	p := uploadParams("rooms")
	if p.PublicID != "" {
		t.Fatalf("public id %q must be assigned by the image host", p.PublicID)
	}
	if p.Folder != "rooms" {
		t.Fatalf("folder = %q", p.Folder)
	}
}
