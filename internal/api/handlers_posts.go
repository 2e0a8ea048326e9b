package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"roomly/internal/database"
	"roomly/internal/service"
)

type postRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *HTTPServer) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.posts.List(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("list posts")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": list})

	case http.MethodPost:
		requireLogin(s.createPost)(w, r)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createPost(w http.ResponseWriter, r *http.Request) {
	var body postRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := CurrentUser(r.Context())
	post, err := s.posts.Create(r.Context(), body.Title, body.Body, id.UserID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPost) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("create post")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *HTTPServer) handlePostByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/posts/"
	rawID := strings.TrimPrefix(r.URL.Path, prefix)
	if rawID == "" || strings.Contains(rawID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	postID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		post, err := s.posts.Get(r.Context(), postID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				writeError(w, http.StatusNotFound, "post not found")
				return
			}
			s.logger.Error().Err(err).Int64("post_id", postID).Msg("get post")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, post)

	case http.MethodPut:
		requireLogin(func(w http.ResponseWriter, r *http.Request) {
			s.editPost(w, r, postID)
		})(w, r)

	case http.MethodDelete:
		requireLogin(func(w http.ResponseWriter, r *http.Request) {
			s.deletePost(w, r, postID)
		})(w, r)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) editPost(w http.ResponseWriter, r *http.Request, postID int64) {
	var body postRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := CurrentUser(r.Context())
	if err := s.posts.Edit(r.Context(), postID, body.Title, body.Body, id.UserID); err != nil {
		s.writePostError(w, postID, err)
		return
	}

	post, err := s.posts.Get(r.Context(), postID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"id": postID})
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *HTTPServer) deletePost(w http.ResponseWriter, r *http.Request, postID int64) {
	id := CurrentUser(r.Context())
	if err := s.posts.Delete(r.Context(), postID, id.UserID); err != nil {
		s.writePostError(w, postID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *HTTPServer) writePostError(w http.ResponseWriter, postID int64, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "post not found")
	case errors.Is(err, service.ErrNotAuthor):
		writeError(w, http.StatusForbidden, "post belongs to another author")
	case errors.Is(err, service.ErrEmptyPost):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Int64("post_id", postID).Msg("post operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
