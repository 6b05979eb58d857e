package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"jarvis/internal/auth"
	"jarvis/internal/speech"
	"jarvis/internal/store"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"response": "⚠️ Empty message received."})
		return
	}

	reply, err := s.dispatcher.Handle(r.Context(), message, user.Username)
	if err != nil {
		s.logger.WithContext("username", user.Username).Error("ask failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"response": fmt.Sprintf("❌ Internal error: %v", err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Empty text"})
		return
	}
	if s.speaker == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Speech is not configured."})
		return
	}

	audio, err := s.speaker.Speak(r.Context(), req.Text)
	if errors.Is(err, speech.ErrEmptyText) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Empty text"})
		return
	}
	if err != nil {
		s.logger.Error("speech synthesis failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `inline; filename="speech.mp3"`)
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	entries, err := s.store.ConversationHistory(r.Context(), user.Username)
	if err != nil {
		s.fail(w, err, "history")
		return
	}
	if entries == nil {
		entries = []store.ConversationEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"username": user.Username, "history": entries})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	files, err := s.store.ListGeneratedFiles(r.Context(), user.AccountID)
	if err != nil {
		s.fail(w, err, "files")
		return
	}
	if files == nil {
		files = []store.GeneratedFile{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	filename := r.PathValue("filename")

	file, err := s.store.GetGeneratedFile(r.Context(), user.AccountID, filename)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "❌ File not found.", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.WithContext("filename", filename).Error("download failed: %v", err)
		http.Error(w, "❌ Internal error.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(file.Content))
}
