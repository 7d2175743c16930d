package http

import (
	"net/http"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query())
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	ns, err := s.deps.Notifications.List(r.Context(), userID(r), limit)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toNotificationDTOs(ns)).Write(w)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Notifications.UnreadCount(r.Context(), userID(r))
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]int64{"count": n}).Write(w)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notifications.MarkRead(r.Context(), userID(r), r.PathValue("id")); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Notifications.MarkAllRead(r.Context(), userID(r))
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]int64{"updated": n}).Write(w)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Notifications.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Notifications.Preferences(r.Context(), userID(r))
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toPreferencesDTO(p)).Write(w)
}

func (s *Server) handlePatchPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesPatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	p, err := s.deps.Notifications.UpdatePreferences(r.Context(), userID(r), req.toPatch())
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toPreferencesDTO(p)).Write(w)
}
