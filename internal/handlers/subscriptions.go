package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/errs"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/response"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

type subscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	channelID, err := pathID(r, "channelId", "channel id")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if channelID == user.ID {
		response.Error(w, r, errs.New(errs.ErrInvalidArgument, "cannot subscribe to your own channel"))
		return
	}

	subscribed, err := h.Subscriptions.Toggle(r.Context(), user.ID, channelID)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	response.OK(w, r, subscriptionResponse{Subscribed: subscribed}, message)
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	channelID, err := pathID(r, "channelId", "channel id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	subscribers, err := h.Subscriptions.Subscribers(r.Context(), channelID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, summariesOrEmpty(subscribers), "Subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	subscriberID, err := pathID(r, "subscriberId", "subscriber id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	channels, err := h.Subscriptions.SubscribedChannels(r.Context(), subscriberID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, summariesOrEmpty(channels), "Subscribed channels fetched successfully")
}

func summariesOrEmpty(in []models.UserSummary) []models.UserSummary {
	if in == nil {
		return []models.UserSummary{}
	}
	return in
}
