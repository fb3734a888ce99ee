package api

import (
	"context"
	"net/http"
)

// crud binds one admin resource kind to its service methods.
type crud[T any] struct {
	list      func(ctx context.Context, includeInactive bool) ([]*T, error)
	get       func(ctx context.Context, id string) (*T, error)
	create    func(ctx context.Context, actor string, in *T) (*T, error)
	update    func(ctx context.Context, actor, id string, in *T) (*T, error)
	setActive func(ctx context.Context, actor, id string, active bool) error
}

// registerCRUD mounts list/create on /api/admin/{kind}, read/replace/archive on
// /api/admin/{kind}/{id} and restore on /api/admin/{kind}/{id}/restore.
// Listing includes archived records unless ?active=1 is given.
func registerCRUD[T any](rt *Router, mux *http.ServeMux, kind string, c crud[T]) {
	base := "/api/admin/" + kind
	mux.Handle("GET "+base, rt.admin(func(w http.ResponseWriter, r *http.Request) {
		items, err := c.list(r.Context(), r.URL.Query().Get("active") != "1")
		if err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}))
	mux.Handle("POST "+base, rt.admin(func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := decodeJSON(r, &in); err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		out, err := c.create(r.Context(), actorFrom(r), &in)
		if err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}))
	mux.Handle("GET "+base+"/{id}", rt.admin(func(w http.ResponseWriter, r *http.Request) {
		out, err := c.get(r.Context(), r.PathValue("id"))
		if err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}))
	mux.Handle("PUT "+base+"/{id}", rt.admin(func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := decodeJSON(r, &in); err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		out, err := c.update(r.Context(), actorFrom(r), r.PathValue("id"), &in)
		if err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}))
	setActive := func(active bool) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id := r.PathValue("id")
			if err := c.setActive(r.Context(), actorFrom(r), id, active); err != nil {
				rt.writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id, "active": active})
		}
	}
	mux.Handle("DELETE "+base+"/{id}", rt.admin(setActive(false)))
	mux.Handle("POST "+base+"/{id}/restore", rt.admin(setActive(true)))
}
