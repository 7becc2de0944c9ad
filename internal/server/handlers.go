package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"adspark/internal/assets"
	"adspark/internal/gemini"
	"adspark/internal/imagen"
	"adspark/internal/project"
	"adspark/internal/storyboard"
)

func storyboardParams(p *project.Project, regenerate bool) storyboard.Params {
	return storyboard.Params{
		ProjectID:   p.ID,
		Title:       p.Title,
		Description: p.Description,
		AssetCount:  len(p.Assets),
		Regenerate:  regenerate,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatOptions uses pointers so an absent field is distinguishable from
// a zero value and gets the configured default.
type chatOptions struct {
	UseThinking    *bool   `json:"useThinking"`
	ThinkingBudget *int    `json:"thinkingBudget"`
	SystemPrompt   *string `json:"systemPrompt"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
	Options  chatOptions   `json:"options"`
}

func (s *Server) buildChatRequest(req chatRequest) gemini.Request {
	cfg := s.svc.Config()

	systemPrompt := s.svc.Prompts().Chat.System
	if req.Options.SystemPrompt != nil {
		systemPrompt = *req.Options.SystemPrompt
	}

	budget := cfg.Gemini.ChatThinkingBudget
	if req.Options.ThinkingBudget != nil {
		budget = *req.Options.ThinkingBudget
	}
	if req.Options.UseThinking != nil && !*req.Options.UseThinking {
		budget = 0
	}

	turns := make([]gemini.Turn, len(req.Messages))
	for i, m := range req.Messages {
		turns[i] = gemini.Turn{Role: m.Role, Content: m.Content}
	}

	return gemini.Request{
		Turns:          turns,
		SystemPrompt:   systemPrompt,
		ThinkingBudget: budget,
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "Messages array is required")
		return
	}

	content, err := s.svc.Text().Generate(r.Context(), s.buildChatRequest(req))
	if err != nil {
		s.logger.Error("chat generation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to generate response")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "Messages array is required")
		return
	}

	stream, err := s.svc.Text().GenerateStream(r.Context(), s.buildChatRequest(req))
	if err != nil {
		s.logger.Error("stream start failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to start streaming")
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)

	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			fmt.Fprint(w, "data: [DONE]\n\n")
			if flusher != nil {
				flusher.Flush()
			}
			return
		}
		if err != nil {
			s.logger.Error("streaming failed", "error", err)
			frame, _ := json.Marshal(map[string]string{"error": "Streaming failed"})
			fmt.Fprintf(w, "data: %s\n\n", frame)
			if flusher != nil {
				flusher.Flush()
			}
			return
		}

		frame, _ := json.Marshal(map[string]string{"content": chunk})
		fmt.Fprintf(w, "data: %s\n\n", frame)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

type enhanceRequest struct {
	Idea    string `json:"idea"`
	Context string `json:"context"`
}

func (s *Server) handleEnhanceIdea(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Idea) == "" {
		s.writeError(w, http.StatusBadRequest, "Idea is required")
		return
	}

	content, err := s.svc.Composer().Enhance(r.Context(), req.Idea, req.Context)
	if err != nil {
		s.logger.Error("idea enhancement failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to enhance idea")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"content":      content,
		"originalIdea": req.Idea,
		"context":      req.Context,
	})
}

type generateImagesRequest struct {
	Scenes         []project.Scene `json:"scenes"`
	Model          string          `json:"model"`
	AspectRatio    string          `json:"aspectRatio"`
	NumberOfImages int             `json:"numberOfImages"`
}

func (s *Server) handleGenerateImages(w http.ResponseWriter, r *http.Request) {
	var req generateImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Scenes) == 0 {
		s.writeError(w, http.StatusBadRequest, "Scenes array is required")
		return
	}

	cfg := s.svc.Config()
	if req.Model == "" {
		req.Model = cfg.Imagen.PreviewModel
	}
	if req.AspectRatio == "" {
		req.AspectRatio = cfg.Imagen.AspectRatio
	}

	result := s.svc.Orchestrator().GenerateImages(r.Context(), req.Scenes, req.Model, req.AspectRatio, req.NumberOfImages)
	s.writeJSON(w, http.StatusOK, result)
}

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
	Idea        string `json:"idea"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.writeError(w, http.StatusBadRequest, "User id is required")
		return
	}

	p := &project.Project{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     req.UserID,
		Idea:        req.Idea,
	}
	if err := s.svc.Store().Create(r.Context(), p); err != nil {
		s.logger.Error("create project failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	projects, err := s.svc.Store().ListByOwner(r.Context(), userID)
	if err != nil {
		s.logger.Error("list projects failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	if projects == nil {
		projects = []*project.Project{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	p, err := s.svc.Store().Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, project.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Project not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("get project failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load project")
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.getProject(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

type updateProjectRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Idea        *string         `json:"idea"`
	Status      *project.Status `json:"status"`
	Thumbnail   *string         `json:"thumbnail"`
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, ok := s.getProject(w, r)
	if !ok {
		return
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Idea != nil {
		p.Idea = *req.Idea
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Thumbnail != nil {
		p.Thumbnail = *req.Thumbnail
	}

	if err := s.svc.Store().Update(r.Context(), p); err != nil {
		s.logger.Error("update project failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to update project")
		return
	}

	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store().Delete(r.Context(), r.PathValue("id")); err != nil {
		s.logger.Error("delete project failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type projectScenesRequest struct {
	Regenerate bool `json:"regenerate"`
}

func (s *Server) handleProjectScenes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	unlock, ok := s.tryLockProject(id)
	if !ok {
		s.writeError(w, http.StatusConflict, "Generation already in progress for this project")
		return
	}
	defer unlock()

	var req projectScenesRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	p, found := s.getProject(w, r)
	if !found {
		return
	}

	scenes, err := s.svc.Synthesizer().Synthesize(r.Context(), storyboardParams(p, req.Regenerate))
	if err != nil {
		s.logger.Error("scene synthesis failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to generate scenes")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"scenes": scenes})
}

type projectImagesRequest struct {
	Model          string `json:"model"`
	AspectRatio    string `json:"aspectRatio"`
	NumberOfImages int    `json:"numberOfImages"`
}

func (s *Server) handleProjectImages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	unlock, ok := s.tryLockProject(id)
	if !ok {
		s.writeError(w, http.StatusConflict, "Generation already in progress for this project")
		return
	}
	defer unlock()

	var req projectImagesRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	p, found := s.getProject(w, r)
	if !found {
		return
	}
	if len(p.Scenes) == 0 {
		s.writeError(w, http.StatusBadRequest, "Project has no scenes to render")
		return
	}

	cfg := s.svc.Config()
	if req.Model == "" {
		req.Model = cfg.Imagen.PreviewModel
	}
	if req.AspectRatio == "" {
		req.AspectRatio = cfg.Imagen.AspectRatio
	}

	result := s.svc.Orchestrator().GenerateImages(r.Context(), p.Scenes, req.Model, req.AspectRatio, req.NumberOfImages)

	// Attach each rendered image to its scene; a fully clean run marks
	// the project completed.
	byScene := make(map[string]imagen.Image, len(result.Images))
	for _, img := range result.Images {
		byScene[img.SceneID] = img
	}
	for i := range p.Scenes {
		if img, ok := byScene[p.Scenes[i].ID]; ok {
			p.Scenes[i].ImageURL = img.ImageURL
		}
	}
	status := project.StatusInProgress
	if result.Success && len(result.Errors) == 0 {
		status = project.StatusCompleted
	}
	if err := s.svc.Store().UpdateScenes(r.Context(), id, p.Scenes, status); err != nil {
		s.logger.Error("persist rendered scenes failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to save generated images")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	p, ok := s.getProject(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(assets.MaxBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	url, err := s.svc.Uploader().Upload(r.Context(), p.ID, header.Filename, file, header.Size)
	if errors.Is(err, assets.ErrTooLarge) {
		s.writeError(w, http.StatusBadRequest, "File exceeds the 10MB limit")
		return
	}
	if err != nil {
		s.logger.Error("asset upload failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to upload asset")
		return
	}

	p.Assets = append(p.Assets, url)
	if err := s.svc.Store().Update(r.Context(), p); err != nil {
		s.logger.Error("record asset failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to record asset")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
