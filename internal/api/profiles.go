package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edgard/middleman/internal/database"
	"github.com/edgard/middleman/internal/recommend"
)

func urlID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return "", CodedErrorf(http.StatusBadRequest, "missing {id} url parameter")
	}
	return id, nil
}

// --- Creators ---

func (s *Service) ListCreators(r *http.Request) (any, error) {
	creators, err := s.store.ListCreators(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]any{"creators": creators}, nil
}

func (s *Service) GetCreator(r *http.Request) (any, error) {
	id, err := urlID(r)
	if err != nil {
		return nil, err
	}
	creator, err := s.store.GetCreator(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, &recommend.NotFoundError{Entity: recommend.EntityCreator, ID: id}
	}
	return CreatorResponse{Creator: creator}, nil
}

func (s *Service) CreateCreator(r *http.Request) (any, error) {
	req, err := ParseRequest[CreateCreatorRequest](r)
	if err != nil {
		return nil, err
	}
	creator := &database.Creator{
		ID:            req.ID,
		Name:          req.Name,
		Niches:        req.Niches,
		Persona:       req.Persona,
		EmojisEnabled: req.EmojisEnabled,
		EmojisUsed:    req.EmojisUsed,
		NSFW:          req.NSFW,
	}
	if err := s.store.CreateCreator(r.Context(), creator); err != nil {
		return nil, err
	}
	return Created(CreatorResponse{Success: true, Creator: creator, Message: "Creator created successfully"}), nil
}

func (s *Service) UpdateCreator(r *http.Request) (any, error) {
	id, err := urlID(r)
	if err != nil {
		return nil, err
	}
	update, err := ParseRequest[database.CreatorUpdate](r)
	if err != nil {
		return nil, err
	}
	if update == (database.CreatorUpdate{}) {
		return nil, CodedErrorf(http.StatusBadRequest, "No fields to update")
	}

	creator, err := s.store.UpdateCreator(r.Context(), id, update)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, &recommend.NotFoundError{Entity: recommend.EntityCreator, ID: id}
	}
	return CreatorResponse{Success: true, Creator: creator, Message: "Creator updated successfully"}, nil
}

// --- Fans ---

func (s *Service) ListFans(r *http.Request) (any, error) {
	fans, err := s.store.ListFans(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]any{"fans": fans}, nil
}

func (s *Service) GetFan(r *http.Request) (any, error) {
	id, err := urlID(r)
	if err != nil {
		return nil, err
	}
	fan, err := s.store.GetFan(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if fan == nil {
		return nil, &recommend.NotFoundError{Entity: recommend.EntityFan, ID: id}
	}
	return FanResponse{Fan: fan}, nil
}

func (s *Service) CreateFan(r *http.Request) (any, error) {
	req, err := ParseRequest[CreateFanRequest](r)
	if err != nil {
		return nil, err
	}
	fan := &database.Fan{ID: req.ID, Name: req.Name, LifetimeSpend: req.LifetimeSpend}
	if err := s.store.CreateFan(r.Context(), fan); err != nil {
		return nil, err
	}
	return Created(FanResponse{Success: true, Fan: fan, Message: "Fan created successfully"}), nil
}

func (s *Service) UpdateFan(r *http.Request) (any, error) {
	id, err := urlID(r)
	if err != nil {
		return nil, err
	}
	update, err := ParseRequest[database.FanUpdate](r)
	if err != nil {
		return nil, err
	}
	if update == (database.FanUpdate{}) {
		return nil, CodedErrorf(http.StatusBadRequest, "No fields to update")
	}

	fan, err := s.store.UpdateFan(r.Context(), id, update)
	if err != nil {
		return nil, err
	}
	if fan == nil {
		return nil, &recommend.NotFoundError{Entity: recommend.EntityFan, ID: id}
	}
	return FanResponse{Success: true, Fan: fan, Message: "Fan updated successfully"}, nil
}

// --- System prompts ---

func (s *Service) ListSystemPrompts(r *http.Request) (any, error) {
	prompts, err := s.store.ListSystemPrompts(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]any{"system_prompts": prompts}, nil
}

func (s *Service) GetSystemPrompt(r *http.Request) (any, error) {
	id, err := urlID(r)
	if err != nil {
		return nil, err
	}
	prompt, err := s.store.GetSystemPrompt(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, &recommend.NotFoundError{Entity: recommend.EntitySystemPrompt, ID: id}
	}
	return SystemPromptResponse{SystemPrompt: prompt}, nil
}

func (s *Service) CreateSystemPrompt(r *http.Request) (any, error) {
	req, err := ParseRequest[CreateSystemPromptRequest](r)
	if err != nil {
		return nil, err
	}
	prompt := &database.SystemPrompt{ID: req.ID, Name: req.Name, SystemPrompt: req.SystemPrompt}
	if err := s.store.CreateSystemPrompt(r.Context(), prompt); err != nil {
		return nil, err
	}
	return Created(SystemPromptResponse{Success: true, SystemPrompt: prompt, Message: "System prompt created successfully"}), nil
}

func (s *Service) UpdateSystemPrompt(r *http.Request) (any, error) {
	id, err := urlID(r)
	if err != nil {
		return nil, err
	}
	update, err := ParseRequest[database.SystemPromptUpdate](r)
	if err != nil {
		return nil, err
	}
	if update == (database.SystemPromptUpdate{}) {
		return nil, CodedErrorf(http.StatusBadRequest, "No fields to update")
	}

	prompt, err := s.store.UpdateSystemPrompt(r.Context(), id, update)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, &recommend.NotFoundError{Entity: recommend.EntitySystemPrompt, ID: id}
	}
	return SystemPromptResponse{Success: true, SystemPrompt: prompt, Message: "System prompt updated successfully"}, nil
}
