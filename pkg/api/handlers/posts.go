package handlers

import (
	"errors"
	"net/http"

	"github.com/TheGoodall/forum/pkg/auth"
	"github.com/TheGoodall/forum/pkg/keys"
	"github.com/TheGoodall/forum/pkg/kv"
	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/store"
	"github.com/TheGoodall/forum/pkg/telemetry"
	"github.com/TheGoodall/forum/pkg/thread"
	"github.com/TheGoodall/forum/pkg/utils"
	"github.com/TheGoodall/forum/pkg/validation"

	"github.com/gorilla/mux"
)

// Posts serves the board read and write endpoints.
type Posts struct {
	Store          *store.PostStore
	Threads        *thread.Assembler
	MaxContentSize int64
}

// Register wires post routes onto the provided router.
func (h *Posts) Register(r *mux.Router) {
	r.HandleFunc("/board", h.getBoard).Methods(http.MethodGet)
	r.HandleFunc("/posts/{path}", h.getPost).Methods(http.MethodGet)
	r.Handle("/posts/{path}", auth.RequireUser(http.HandlerFunc(h.putPost))).Methods(http.MethodPut)
	r.Handle("/posts/{path}", auth.RequireUser(http.HandlerFunc(h.deletePost))).Methods(http.MethodDelete)
}

// getBoard handles GET /board: the root thread with its top-level replies.
func (h *Posts) getBoard(w http.ResponseWriter, r *http.Request) {
	h.renderThread(w, r, "")
}

// getPost handles GET /posts/{path}: one post with its direct replies.
func (h *Posts) getPost(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	if err := keys.ValidatePath(path); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.renderThread(w, r, path)
}

func (h *Posts) renderThread(w http.ResponseWriter, r *http.Request, path string) {
	view, err := h.Threads.Assemble(r.Context(), path)
	if err != nil {
		if kv.IsNotFound(err) {
			utils.JSONError(w, http.StatusNotFound, "post not found")
			return
		}
		logger.Error("thread_assemble_failed", "path", path, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, view)
}

// putPost handles PUT /posts/{path}: create a reply. The final character
// of the path is the reply title; the rest must name an existing parent.
// Content arrives as the "content" form value.
func (h *Posts) putPost(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	if err := keys.ValidatePath(path); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateReplyTitle(path[len(path)-1:]); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	content := r.FormValue("content")
	if err := validation.ValidateContent(content, h.MaxContentSize); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserFromContext(r.Context())
	if err := h.Store.Create(path, content, userID); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			utils.JSONError(w, http.StatusConflict, "post already exists")
		case errors.Is(err, store.ErrParentMissing):
			utils.JSONError(w, http.StatusNotFound, "parent post not found")
		case errors.Is(err, keys.ErrPathTooLong):
			utils.JSONError(w, http.StatusBadRequest, "path too long")
		default:
			logger.Error("post_create_failed", "path", path, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	telemetry.PostCreated()
	logger.Info("post_created", "path", path, "author", userID)
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]string{"path": path})
}

// deletePost handles DELETE /posts/{path}. Only the author may delete, and
// replies are left in place.
func (h *Posts) deletePost(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	if err := keys.ValidatePath(path); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if path == "" {
		utils.JSONError(w, http.StatusForbidden, "cannot delete the board root")
		return
	}

	post, err := h.Store.Get(path)
	if err != nil {
		if kv.IsNotFound(err) {
			utils.JSONError(w, http.StatusNotFound, "post not found")
			return
		}
		logger.Error("post_get_failed", "path", path, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	userID := auth.UserFromContext(r.Context())
	if post.Author != userID {
		logger.Warn("post_delete_forbidden", "path", path, "user", userID)
		utils.JSONError(w, http.StatusForbidden, "only the author may delete a post")
		return
	}
	if err := h.Store.Delete(path); err != nil {
		logger.Error("post_delete_failed", "path", path, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	logger.Info("post_deleted", "path", path, "author", userID)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"parent": keys.Parent(path)})
}
