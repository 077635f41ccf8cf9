// Package thread composes a post, its author and its direct replies into
// a display-ready view. It owns no data; it is a read-side join over the
// post and account stores.
package thread

import (
	"context"
	"sync"

	"github.com/TheGoodall/forum/pkg/kv"
	"github.com/TheGoodall/forum/pkg/models"
	"github.com/TheGoodall/forum/pkg/store"
)

// DeletedUser is the author name rendered when an account no longer
// exists. A missing author never fails an assembly.
const DeletedUser = "[deleted]"

// Reply is one direct child of the assembled post.
type Reply struct {
	Path   string      `json:"path"`
	Post   models.Post `json:"post"`
	Author string      `json:"author"`
}

// View is a fully assembled thread page.
type View struct {
	Path    string      `json:"path"`
	Post    models.Post `json:"post"`
	Author  string      `json:"author"`
	Replies []Reply     `json:"replies"`
}

// Assembler joins posts with their authors.
type Assembler struct {
	posts    *store.PostStore
	accounts *store.AccountStore
}

// NewAssembler returns an Assembler over the given stores.
func NewAssembler(posts *store.PostStore, accounts *store.AccountStore) *Assembler {
	return &Assembler{posts: posts, accounts: accounts}
}

// Assemble fetches the post at path, its author, and its direct replies
// with their authors. Reply author lookups have no ordering dependency on
// each other and are issued concurrently; the replies keep the order the
// post store returned them in. Only a missing post fails the assembly
// (kv.ErrNotFound); missing authors render as DeletedUser.
func (a *Assembler) Assemble(ctx context.Context, path string) (*View, error) {
	post, err := a.posts.Get(path)
	if err != nil {
		return nil, err
	}
	children, err := a.posts.ListDirectChildren(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view := &View{
		Path:    path,
		Post:    post,
		Author:  DeletedUser,
		Replies: make([]Reply, len(children)),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(children)+1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		name, err := a.authorName(post.Author)
		view.Author = name
		errs[len(children)] = err
	}()

	for i, c := range children {
		wg.Add(1)
		go func(i int, c store.Child) {
			defer wg.Done()
			name, err := a.authorName(c.Post.Author)
			view.Replies[i] = Reply{Path: c.Path, Post: c.Post, Author: name}
			errs[i] = err
		}(i, c)
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return view, nil
}

// authorName resolves a user ID to a display name. Missing accounts map
// to DeletedUser; backend failures propagate.
func (a *Assembler) authorName(userID string) (string, error) {
	u, err := a.accounts.Get(userID)
	if err != nil {
		if kv.IsNotFound(err) {
			return DeletedUser, nil
		}
		return "", err
	}
	return u.Account.Username, nil
}
