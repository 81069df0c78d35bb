package avatar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"phone-trivia/internal/app"
)

func TestGetAvatarImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/avatars/p1":
			if r.URL.Query().Get("size") != "64" {
				t.Errorf("expected size 64, got %q", r.URL.Query().Get("size"))
			}
			_, _ = w.Write([]byte("png-bytes"))
		case "/avatars/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, time.Second)
	svc.SetHeader(APIKeyHeader, "secret")
	ctx := context.Background()

	img, err := svc.GetAvatarImage(ctx, "p1", app.AvatarOptions{Size: 64})
	if err != nil {
		t.Fatalf("get avatar: %v", err)
	}
	if string(img) != "png-bytes" {
		t.Fatalf("unexpected image %q", img)
	}

	img, err = svc.GetAvatarImage(ctx, "nobody", app.AvatarOptions{})
	if err != nil || img != nil {
		t.Fatalf("expected nil image without error for 404, got %v %v", img, err)
	}

	if _, err := svc.GetAvatarImage(ctx, "broken", app.AvatarOptions{}); err == nil {
		t.Fatalf("expected error for 500")
	}
}
