package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/analytics"
	"github.com/linksgo/linksgo/internal/auth"
	"github.com/linksgo/linksgo/internal/cache"
	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

type AnalyticsHandler struct {
	DB        *db.DB
	Cache     *cache.ProfileCache
	Collector *analytics.Collector
	Log       *zap.Logger
}

// eventRequest is what a visitor's page reports. Device, browser and OS are
// recomputed from the user agent when one is present.
type eventRequest struct {
	ProfileID  string `json:"profile_id"`
	LinkID     int64  `json:"link_id"`
	VisitorID  string `json:"visitor_id"`
	UserAgent  string `json:"user_agent"`
	Referrer   string `json:"referrer"`
	DeviceType string `json:"device_type"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	Country    string `json:"country"`
	City       string `json:"city"`
}

func (req *eventRequest) event(r *http.Request, k analytics.Kind) analytics.Event {
	e := analytics.FromRequest(r, k)
	v := &e.Visit
	if req.VisitorID != "" {
		v.VisitorID = req.VisitorID
	}
	if req.UserAgent != "" {
		v.UserAgent = req.UserAgent
	}
	if req.Referrer != "" {
		v.Referrer = req.Referrer
	}
	v.DeviceType = req.DeviceType
	v.Browser = req.Browser
	v.OS = req.OS
	v.Country = req.Country
	v.City = req.City
	return e
}

type recordResponse struct {
	Recorded    bool `json:"recorded"`
	Active      bool `json:"active"`
	Deactivated bool `json:"deactivated"`
}

// RecordView queues a page view for an existing profile.
func (h *AnalyticsHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ProfileID == "" {
		jsonError(w, "profile_id is required", http.StatusBadRequest)
		return
	}
	if _, err := models.GetProfileByID(r.Context(), h.DB, req.ProfileID); err != nil {
		writeModelError(w, h.Log, "record page view", err)
		return
	}

	e := req.event(r, analytics.PageView)
	e.ProfileID = req.ProfileID
	h.Collector.Push(e)
	writeJSON(w, http.StatusAccepted, recordResponse{Recorded: true, Active: true})
}

// RecordClick credits the click on the link first, so a one-time link is
// deactivated server-side, then queues the event.
func (h *AnalyticsHandler) RecordClick(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.LinkID <= 0 {
		jsonError(w, "link_id is required", http.StatusBadRequest)
		return
	}

	res, err := models.RecordClick(r.Context(), h.DB, req.LinkID, time.Now())
	switch {
	case errors.Is(err, models.ErrLinkInactive):
		writeJSON(w, http.StatusAccepted, recordResponse{})
		return
	case err != nil:
		writeModelError(w, h.Log, "record link click", err)
		return
	}

	e := req.event(r, analytics.LinkClick)
	e.ProfileID = res.Link.ProfileID
	e.LinkID = res.Link.ID
	h.Collector.Push(e)

	if res.Deactivated {
		invalidateOwner(r, h.DB, h.Cache, h.Log, res.Link.ProfileID)
	}
	writeJSON(w, http.StatusAccepted, recordResponse{
		Recorded:    true,
		Active:      res.Link.IsActive,
		Deactivated: res.Deactivated,
	})
}

// Summary returns the caller's counts for ?timeframe=24h|7d|30d|1y.
// Other profiles' ids are answered as not found.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	owner := auth.ProfileFrom(r.Context())
	q := r.URL.Query()

	if id := q.Get("profile_id"); id != "" && id != owner.ID {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	tf, err := models.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		writeModelError(w, h.Log, "parse timeframe", err)
		return
	}

	s, err := models.Summarize(r.Context(), h.DB, owner.ID, tf, time.Now())
	if err != nil {
		writeModelError(w, h.Log, "summarize analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
