package api

import (
	"net/http"

	"github.com/edgard/middleman/internal/database"
	"github.com/edgard/middleman/internal/recommend"
)

func (s *Service) Recommend(r *http.Request) (any, error) {
	req, err := ParseRequest[RecommendationRequest](r)
	if err != nil {
		return nil, err
	}
	chatType := req.ChatType
	if chatType == "" {
		chatType = recommend.DefaultChatType
	}

	ctx := r.Context()
	history, err := s.fetcher.RecentHistory(ctx, req.CreatorID, req.FanID)
	if err != nil {
		return nil, err
	}

	recs, err := s.engine.Recommend(ctx, recommend.Request{
		CreatorID:      req.CreatorID,
		FanID:          req.FanID,
		SystemPromptID: req.SystemPromptID,
		ChatHistory:    history,
		ChatType:       chatType,
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Generated recommendations", "creator_id", req.CreatorID, "fan_id", req.FanID, "count", len(recs))
	return RecommendationResponse{
		Recommendations: recs,
		FanID:           req.FanID,
		CreatorID:       req.CreatorID,
		ChatType:        chatType,
	}, nil
}

func (s *Service) StoreSelectedReply(r *http.Request) (any, error) {
	req, err := ParseRequest[SelectedReplyRequest](r)
	if err != nil {
		return nil, err
	}
	chatType := req.ChatType
	if chatType == "" {
		chatType = recommend.DefaultChatType
	}

	metadata := database.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.ReplyID != "" {
		metadata["reply_id"] = req.ReplyID
	}
	metadata["chat_type"] = chatType

	msg := &database.ChatMessage{
		FanID:     req.FanID,
		CreatorID: req.CreatorID,
		Sender:    database.SenderCreator,
		Content:   req.ReplyContent,
		Metadata:  metadata,
	}
	if err := s.store.SaveChatMessage(r.Context(), msg); err != nil {
		return nil, err
	}

	return Created(StoredMessageResponse{
		Success:   true,
		MessageID: msg.ID,
		Message:   "Chat reply stored successfully",
	}), nil
}

func (s *Service) StoreFanMessage(r *http.Request) (any, error) {
	req, err := ParseRequest[FanMessageRequest](r)
	if err != nil {
		return nil, err
	}

	msg := &database.ChatMessage{
		FanID:     req.FanID,
		CreatorID: req.CreatorID,
		Sender:    database.SenderFan,
		Content:   req.Content,
	}
	if err := s.store.SaveChatMessage(r.Context(), msg); err != nil {
		return nil, err
	}

	return Created(StoredMessageResponse{
		Success:   true,
		MessageID: msg.ID,
		Message:   "Fan message stored successfully",
	}), nil
}

func (s *Service) ChatHistory(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[ChatHistoryParams](r)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.GetChatHistory(r.Context(), params.CreatorID, params.FanID)
	if err != nil {
		return nil, err
	}
	return ChatHistoryResponse{Messages: messages}, nil
}
