package instagram_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storyfetch/internal/instagram"
	"storyfetch/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*instagram.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := instagram.New(
		instagram.WithBaseURL(server.URL),
		instagram.WithHTTPClient(server.Client()),
	)
	return client, server
}

func TestLoginCapturesAuthorizationAndCookies(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/login/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("signed_body") == "" {
			t.Fatal("expected signed_body field")
		}
		w.Header().Set("Ig-Set-Authorization", "Bearer IGT:2:abc")
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "xyz"})
		fmt.Fprint(w, `{"status":"ok","logged_in_user":{"pk":42,"username":"archive"}}`)
	}))

	if err := client.Login(context.Background(), "archive", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	settings := client.ExportSettings()
	if settings.Authorization != "Bearer IGT:2:abc" {
		t.Fatalf("authorization not captured: %q", settings.Authorization)
	}
	if settings.Cookies["sessionid"] != "xyz" {
		t.Fatalf("cookie not captured: %+v", settings.Cookies)
	}
	if !settings.Authenticated() {
		t.Fatal("expected exported settings to be authenticated")
	}
}

func TestProbeDetectsLoginRequired(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"status":"fail","message":"login_required"}`)
	}))

	err := client.Probe(context.Background())
	if !errors.Is(err, instagram.ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}
}

func TestProbeSucceedsOnValidSession(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/timeline/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	}))

	if err := client.Probe(context.Background()); err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
}

func TestUserStoriesSkipsPhotoItems(t *testing.T) {
	taken := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed/user/42/story/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{
			"status": "ok",
			"reel": {"items": [
				{"pk": 1, "id": "1_42", "taken_at": %d, "media_type": 2,
				 "video_versions": [{"url": "https://cdn.example/clip1.mp4"}]},
				{"pk": 2, "id": "2_42", "taken_at": %d, "media_type": 1},
				{"pk": 3, "id": "3_42", "taken_at": %d, "media_type": 2,
				 "video_versions": [{"url": "https://cdn.example/clip3.mp4"}]}
			]}
		}`, taken.Unix(), taken.Add(time.Hour).Unix(), taken.Add(2*time.Hour).Unix())
	}))

	stories, err := client.UserStories(context.Background(), 42)
	if err != nil {
		t.Fatalf("UserStories returned error: %v", err)
	}
	if len(stories) != 2 {
		t.Fatalf("expected photo item skipped, got %d stories", len(stories))
	}
	if stories[0].PK != "1_42" || !stories[0].TakenAt.Equal(taken) {
		t.Fatalf("unexpected first story %+v", stories[0])
	}
}

func TestRestoreSettingsRegeneratesMissingIdentity(t *testing.T) {
	client := instagram.New()
	original := client.ExportSettings()

	original.UUIDs = session.DeviceIDs{}
	original.UserAgent = ""
	client.RestoreSettings(original)
	restored := client.ExportSettings()
	if restored.UUIDs.Empty() {
		t.Fatal("expected device identity regeneration")
	}
	if restored.UserAgent == "" {
		t.Fatal("expected default user agent restoration")
	}
}

func TestDownloadStoryWritesFile(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("clip-bytes"))
	}))
	t.Cleanup(media.Close)

	client := instagram.New(instagram.WithHTTPClient(media.Client()))
	dest := filepath.Join(t.TempDir(), "clip.mp4")
	story := instagram.Story{PK: "1", VideoURL: media.URL + "/clip.mp4"}

	if err := client.DownloadStory(context.Background(), story, dest); err != nil {
		t.Fatalf("DownloadStory returned error: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read clip: %v", err)
	}
	if string(data) != "clip-bytes" {
		t.Fatalf("unexpected clip contents %q", data)
	}
}
