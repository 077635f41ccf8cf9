package api

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/TheGoodall/forum/pkg/config"
	"github.com/TheGoodall/forum/pkg/kv"
	"github.com/TheGoodall/forum/pkg/store"
	"github.com/TheGoodall/forum/pkg/thread"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := kv.NewMemory()
	posts := store.NewPostStore(mem)
	accounts := store.NewAccountStore(mem)
	sessions := store.NewSessionStore(mem, accounts, time.Hour)
	if err := posts.EnsureRoot("welcome", ""); err != nil {
		t.Fatalf("EnsureRoot failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Session.Expiry = config.Duration(time.Hour)
	cfg.Security.RateLimit.RPS = 1000
	cfg.Security.RateLimit.Burst = 1000

	srv := httptest.NewServer(Handler(cfg, Deps{
		Posts:    posts,
		Accounts: accounts,
		Sessions: sessions,
		Threads:  thread.NewAssembler(posts, accounts),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postForm(t *testing.T, c *http.Client, rawURL string, form url.Values) *http.Response {
	t.Helper()
	res, err := c.PostForm(rawURL, form)
	if err != nil {
		t.Fatalf("POST %s failed: %v", rawURL, err)
	}
	return res
}

func register(t *testing.T, c *http.Client, base, user, pass string) {
	t.Helper()
	res := postForm(t, c, base+"/v1/register", url.Values{
		"user": {user}, "name": {user}, "password": {pass},
	})
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", user, res.StatusCode)
	}
}

func putPost(t *testing.T, c *http.Client, base, path, content string) *http.Response {
	t.Helper()
	body := url.Values{"content": {content}}.Encode()
	req, err := http.NewRequest(http.MethodPut, base+"/v1/posts/"+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := c.Do(req)
	if err != nil {
		t.Fatalf("PUT %s failed: %v", path, err)
	}
	return res
}

func TestHealthz(t *testing.T) {
	srv := setupServer(t)
	res, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
}

func TestBoardRoundTrip(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)
	register(t, c, srv.URL, "alice", "hunter2")

	res := putPost(t, c, srv.URL, "a", "first thread")
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create post: status %d", res.StatusCode)
	}

	res2, err := http.Get(srv.URL + "/v1/board")
	if err != nil {
		t.Fatalf("GET /v1/board failed: %v", err)
	}
	defer res2.Body.Close()
	var view struct {
		Post struct {
			Content string `json:"content"`
		} `json:"post"`
		Replies []struct {
			Path   string `json:"path"`
			Author string `json:"author"`
		} `json:"replies"`
	}
	if err := json.NewDecoder(res2.Body).Decode(&view); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if view.Post.Content != "welcome" {
		t.Fatalf("root content = %q", view.Post.Content)
	}
	if len(view.Replies) != 1 || view.Replies[0].Path != "a" {
		t.Fatalf("replies = %+v", view.Replies)
	}
	if view.Replies[0].Author != "alice" {
		t.Fatalf("reply author = %q", view.Replies[0].Author)
	}
}

func TestCreateRequiresSession(t *testing.T) {
	srv := setupServer(t)
	res := putPost(t, http.DefaultClient, srv.URL, "a", "anonymous")
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", res.StatusCode)
	}
}

func TestCreateValidation(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)
	register(t, c, srv.URL, "alice", "hunter2")

	// missing parent
	res := putPost(t, c, srv.URL, "zz", "orphan")
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("orphan create: status %d, want 404", res.StatusCode)
	}

	// duplicate path
	res = putPost(t, c, srv.URL, "a", "one")
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", res.StatusCode)
	}
	res = putPost(t, c, srv.URL, "a", "two")
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate create: status %d, want 409", res.StatusCode)
	}

	// empty content
	res = putPost(t, c, srv.URL, "b", "")
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty content: status %d, want 400", res.StatusCode)
	}
}

func TestDeleteAuthorOnly(t *testing.T) {
	srv := setupServer(t)

	alice := newClient(t)
	register(t, alice, srv.URL, "alice", "hunter2")
	res := putPost(t, alice, srv.URL, "a", "mine")
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", res.StatusCode)
	}

	bob := newClient(t)
	register(t, bob, srv.URL, "bob", "secret")

	del := func(c *http.Client) int {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/posts/a", nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		res, err := c.Do(req)
		if err != nil {
			t.Fatalf("DELETE failed: %v", err)
		}
		defer res.Body.Close()
		return res.StatusCode
	}

	if code := del(bob); code != http.StatusForbidden {
		t.Fatalf("stranger delete: status %d, want 403", code)
	}
	if code := del(alice); code != http.StatusOK {
		t.Fatalf("author delete: status %d, want 200", code)
	}
	if code := del(alice); code != http.StatusNotFound {
		t.Fatalf("second delete: status %d, want 404", code)
	}
}

func TestLoginFlow(t *testing.T) {
	srv := setupServer(t)
	setup := newClient(t)
	register(t, setup, srv.URL, "alice", "hunter2")

	// wrong password
	c := newClient(t)
	res := postForm(t, c, srv.URL+"/v1/login", url.Values{"user": {"alice"}, "password": {"wrong"}})
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d, want 401", res.StatusCode)
	}

	// unknown user gets the same answer
	res = postForm(t, c, srv.URL+"/v1/login", url.Values{"user": {"nobody"}, "password": {"hunter2"}})
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown user: status %d, want 401", res.StatusCode)
	}

	// correct login issues a working session cookie
	res = postForm(t, c, srv.URL+"/v1/login", url.Values{"user": {"alice"}, "password": {"hunter2"}})
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", res.StatusCode)
	}
	pr := putPost(t, c, srv.URL, "a", "logged in")
	pr.Body.Close()
	if pr.StatusCode != http.StatusCreated {
		t.Fatalf("post after login: status %d", pr.StatusCode)
	}

	// logout invalidates the session
	res = postForm(t, c, srv.URL+"/v1/logout", nil)
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", res.StatusCode)
	}
	pr = putPost(t, c, srv.URL, "b", "after logout")
	pr.Body.Close()
	if pr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post after logout: status %d, want 401", pr.StatusCode)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)
	register(t, c, srv.URL, "alice", "hunter2")

	res := postForm(t, c, srv.URL+"/v1/register", url.Values{
		"user": {"alice"}, "password": {"other"},
	})
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", res.StatusCode)
	}
}

func TestReplyTitleValidation(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)
	register(t, c, srv.URL, "alice", "hunter2")

	// a multi-character final segment still validates each char, but the
	// parent (all but the last char) must exist; with only the root
	// present a two-char path 404s rather than skipping levels
	res := putPost(t, c, srv.URL, "ab", "skipping a level")
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("level-skipping create: status %d, want 404", res.StatusCode)
	}

	// invalid path characters are rejected outright
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/posts/a%20b", strings.NewReader(url.Values{"content": {"x"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res2, err := c.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid path: status %d, want 400", res2.StatusCode)
	}
}

func TestContentEscapedInResponses(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)
	register(t, c, srv.URL, "alice", "hunter2")

	res := putPost(t, c, srv.URL, "a", `<b>bold</b>`)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", res.StatusCode)
	}

	res2, err := http.Get(srv.URL + "/v1/posts/a")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer res2.Body.Close()
	var view struct {
		Post struct {
			Content string `json:"content"`
		} `json:"post"`
	}
	if err := json.NewDecoder(res2.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(view.Post.Content, "<b>") {
		t.Fatalf("content served unescaped: %q", view.Post.Content)
	}
}
