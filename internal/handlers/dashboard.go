package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/response"
)

// DashboardHandler serves a channel's aggregate statistics and its uploads.
type DashboardHandler struct {
	Stats  StatsReader
	Videos VideoStore
}

// ChannelStats handles GET /api/v1/dashboard/{channelId}/stats.
func (h DashboardHandler) ChannelStats(w http.ResponseWriter, r *http.Request) {
	channelID, err := pathID(r, "channelId", "channel id")
	if err != nil {
		response.Error(w, r, err)
		return
	}

	stats, err := h.Stats.ChannelStats(r.Context(), channelID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, stats, "Channel stats fetched successfully")
}

// ChannelVideos handles GET /api/v1/dashboard/{channelId}/videos. Unpublished videos are
// included only when the caller owns the channel.
func (h DashboardHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	channelID, err := pathID(r, "channelId", "channel id")
	if err != nil {
		response.Error(w, r, err)
		return
	}
	page, err := pageRequest(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	videos, total, err := h.Videos.List(r.Context(), models.VideoFilter{
		Page:     page,
		SortDesc: true,
		OwnerID:  channelID,
		ViewerID: viewer.ID,
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, models.NewPage(videos, total, page), "Channel videos fetched successfully")
}
