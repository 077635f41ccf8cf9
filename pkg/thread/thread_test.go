package thread

import (
	"context"
	"testing"

	"github.com/TheGoodall/forum/pkg/kv"
	"github.com/TheGoodall/forum/pkg/store"
)

func newFixture(t *testing.T) (*Assembler, *store.PostStore, *store.AccountStore) {
	t.Helper()
	mem := kv.NewMemory()
	posts := store.NewPostStore(mem)
	accounts := store.NewAccountStore(mem)
	if err := accounts.Create("admin", "Admin", "pw"); err != nil {
		t.Fatalf("Create account failed: %v", err)
	}
	if err := posts.EnsureRoot("welcome", "admin"); err != nil {
		t.Fatalf("EnsureRoot failed: %v", err)
	}
	return NewAssembler(posts, accounts), posts, accounts
}

func TestAssembleRoot(t *testing.T) {
	asm, posts, accounts := newFixture(t)

	if err := accounts.Create("alice", "Alice", "pw"); err != nil {
		t.Fatalf("Create account failed: %v", err)
	}
	for _, c := range []string{"b", "a", "c"} {
		if err := posts.Create(c, "reply "+c, "alice"); err != nil {
			t.Fatalf("Create post %q failed: %v", c, err)
		}
	}

	view, err := asm.Assemble(context.Background(), "")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if view.Author != "Admin" {
		t.Fatalf("root author = %q, want Admin", view.Author)
	}
	if view.Post.Content != "welcome" {
		t.Fatalf("root content = %q", view.Post.Content)
	}
	if len(view.Replies) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(view.Replies))
	}
	wantOrder := []string{"a", "b", "c"}
	for i, r := range view.Replies {
		if r.Path != wantOrder[i] {
			t.Fatalf("reply %d path = %q, want %q", i, r.Path, wantOrder[i])
		}
		if r.Author != "Alice" {
			t.Fatalf("reply %d author = %q, want Alice", i, r.Author)
		}
	}
}

func TestAssembleMissingPost(t *testing.T) {
	asm, _, _ := newFixture(t)

	if _, err := asm.Assemble(context.Background(), "zz"); !kv.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound for missing post, got %v", err)
	}
}

func TestAssembleDeletedAuthor(t *testing.T) {
	asm, posts, _ := newFixture(t)

	// the post's author never registered an account
	if err := posts.Create("a", "ghost post", "ghost"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	view, err := asm.Assemble(context.Background(), "a")
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if view.Author != DeletedUser {
		t.Fatalf("missing author rendered as %q, want %q", view.Author, DeletedUser)
	}

	root, err := asm.Assemble(context.Background(), "")
	if err != nil {
		t.Fatalf("Assemble root failed: %v", err)
	}
	if len(root.Replies) != 1 || root.Replies[0].Author != DeletedUser {
		t.Fatalf("missing reply author not rendered as %q: %+v", DeletedUser, root.Replies)
	}
}

func TestAssembleCancelledContext(t *testing.T) {
	asm, _, _ := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := asm.Assemble(ctx, ""); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
