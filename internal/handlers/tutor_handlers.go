package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"mathtutor-backend/internal/auth"
	"mathtutor-backend/internal/llm"
	"mathtutor-backend/internal/models"
	"mathtutor-backend/internal/services"
	"mathtutor-backend/internal/store"
	"mathtutor-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TutorHandlers handles HTTP requests for conversations and exchanges.
type TutorHandlers struct {
	tutorService *services.TutorService
}

// NewTutorHandlers creates a new TutorHandlers instance.
func NewTutorHandlers(tutorService *services.TutorService) *TutorHandlers {
	return &TutorHandlers{
		tutorService: tutorService,
	}
}

// HandleCreateConversation handles POST /v1/conversations.
func (h *TutorHandlers) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// An empty body is allowed; the title is optional.
	var req models.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	conv, err := h.tutorService.CreateConversation(r.Context(), userID, req.Title)
	if err != nil {
		log.Printf("CreateConversation handler failed for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to create conversation")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, mapConversationToResponse(conv))
}

// HandleListConversations handles GET /v1/conversations.
func (h *TutorHandlers) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	convs, err := h.tutorService.ListConversations(r.Context(), userID)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}

	resp := models.ListConversationsResponse{
		Conversations: make([]models.ConversationResponse, 0, len(convs)),
	}
	for i := range convs {
		resp.Conversations = append(resp.Conversations, mapConversationToResponse(&convs[i]))
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetConversation handles GET /v1/conversations/{conversationID}.
func (h *TutorHandlers) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	conv, err := h.tutorService.GetConversation(r.Context(), userID, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to get conversation")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, mapConversationToResponse(conv))
}

// HandleGetMessages handles GET /v1/conversations/{conversationID}/messages.
func (h *TutorHandlers) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	msgs, err := h.tutorService.GetMessages(r.Context(), userID, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	resp := models.ListMessagesResponse{
		Messages: make([]models.MessageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, models.MessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleDeleteConversation handles DELETE /v1/conversations/{conversationID}.
func (h *TutorHandlers) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	if err := h.tutorService.DeleteConversation(r.Context(), userID, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to delete conversation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSolveProblem handles POST /v1/conversations/{conversationID}/solve.
func (h *TutorHandlers) HandleSolveProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	var req models.SolveProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	answer, err := h.tutorService.SolveProblem(r.Context(), userID, conversationID, req.Question)
	if err != nil {
		log.Printf("SolveProblem handler failed for conversation %s: %v", conversationID, err)

		var invErr *llm.InvocationError
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, err.Error()) // 400
		case errors.Is(err, store.ErrNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found") // 404
		case errors.As(err, &invErr):
			// The user message is already persisted; report the failure
			// class so the caller can distinguish timeout from the rest.
			if invErr.Kind == llm.KindTimeout {
				httputil.RespondError(w, http.StatusGatewayTimeout, "Model invocation timed out") // 504
			} else {
				httputil.RespondError(w, http.StatusBadGateway, "Model invocation failed: "+string(invErr.Kind)) // 502
			}
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to solve problem") // 500
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.SolveProblemResponse{Answer: answer})
}

func mapConversationToResponse(conv *models.Conversation) models.ConversationResponse {
	return models.ConversationResponse{
		ID:           conv.ID,
		Title:        conv.Title,
		LastActivity: conv.LastActivity,
		CreatedAt:    conv.CreatedAt,
	}
}
