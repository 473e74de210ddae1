package httpapi

import (
	"net/http"
	"time"

	"github.com/alexanderramin/worktime/internal/contract"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/engine"
	"github.com/alexanderramin/worktime/internal/identity"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	log      zerolog.Logger
	auth     Authenticator
	trackers *service.Registry
}

func NewHandler(log zerolog.Logger, auth Authenticator, trackers *service.Registry) *Handler {
	return &Handler{log: log, auth: auth, trackers: trackers}
}

type userResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func newAuthResponse(id domain.Identity) authResponse {
	return authResponse{
		Token: id.Token,
		User: userResponse{
			ID:          id.UserID,
			Username:    id.Username,
			Email:       id.Email,
			DisplayName: id.DisplayName,
		},
	}
}

type sessionsResponse struct {
	Sessions []contract.SessionView `json:"sessions"`
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

// tracker returns the caller's tracker. Trackers stay open while the server
// runs so autosave keeps its debounce window across requests.
func (h *Handler) tracker(c *gin.Context) (*service.Tracker, bool) {
	id, ok := IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return nil, false
	}
	t, err := h.trackers.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return t, true
}

func (h *Handler) execute(c *gin.Context, status int, cmd engine.Command) {
	t, ok := h.tracker(c)
	if !ok {
		return
	}
	res, err := t.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, sessionsResponse{Sessions: contract.NewSessionViews(res.Sessions)})
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "trackers": h.trackers.Len()})
}

// Login handles POST /api/login.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Login    string `json:"login" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.auth.Login(c.Request.Context(), identity.Credentials{Login: req.Login, Password: req.Password})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(id))
}

// Register handles POST /api/register.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.auth.Register(c.Request.Context(), identity.Registration{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAuthResponse(id))
}

// Today handles GET /api/today.
func (h *Handler) Today(c *gin.Context) {
	t, ok := h.tracker(c)
	if !ok {
		return
	}
	view, err := t.Today(c.Request.Context(), contract.NewTodayRequest())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListSessions handles GET /api/sessions. from and to are inclusive
// calendar days in the tracker's location.
func (h *Handler) ListSessions(c *gin.Context) {
	var q struct {
		From   string `form:"from"`
		To     string `form:"to"`
		Type   string `form:"type"`
		Manual bool   `form:"manual"`
		Limit  uint64 `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	req := contract.HistoryRequest{ManualOnly: q.Manual, Limit: q.Limit}
	if q.Type != "" {
		typ, err := domain.ParseSessionType(q.Type)
		if err != nil {
			h.fail(c, err)
			return
		}
		req.Type = typ
	}

	t, ok := h.tracker(c)
	if !ok {
		return
	}
	from, err := parseQueryDay(q.From, t.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := parseQueryDay(q.To, t.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	req.From = from
	if to != nil {
		end := to.AddDate(0, 0, 1)
		req.To = &end
	}

	sessions, err := t.History(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionsResponse{Sessions: contract.NewSessionViews(sessions)})
}

func parseQueryDay(v string, loc *time.Location) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, loc)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type atRequest struct {
	At *time.Time `json:"at"`
}

func (r atRequest) at() time.Time {
	if r.At == nil {
		return time.Time{}
	}
	return *r.At
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

// StartSession handles POST /api/sessions.
func (h *Handler) StartSession(c *gin.Context) {
	var req struct {
		Type string     `json:"type"`
		At   *time.Time `json:"at"`
	}
	if !bindOptional(c, &req) {
		return
	}
	typ := domain.SessionWork
	if req.Type != "" {
		parsed, err := domain.ParseSessionType(req.Type)
		if err != nil {
			h.fail(c, err)
			return
		}
		typ = parsed
	}
	h.execute(c, http.StatusCreated, engine.StartSession{Type: typ, At: atRequest{At: req.At}.at()})
}

// CompleteSession handles POST /api/sessions/:id/complete.
func (h *Handler) CompleteSession(c *gin.Context) {
	var req atRequest
	if !bindOptional(c, &req) {
		return
	}
	h.execute(c, http.StatusOK, engine.CompleteSession{ID: c.Param("id"), At: req.at()})
}

// CheckOut handles POST /api/sessions/:id/checkout.
func (h *Handler) CheckOut(c *gin.Context) {
	var req struct {
		At time.Time `json:"at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at is required"})
		return
	}
	h.execute(c, http.StatusOK, engine.ManualCheckOut{ID: c.Param("id"), At: req.At})
}

// CompleteAll handles POST /api/sessions/complete-all.
func (h *Handler) CompleteAll(c *gin.Context) {
	var req atRequest
	if !bindOptional(c, &req) {
		return
	}
	h.execute(c, http.StatusOK, engine.CompleteAll{At: req.at()})
}

// ManualSession handles POST /api/sessions/manual.
func (h *Handler) ManualSession(c *gin.Context) {
	var req struct {
		Type          string     `json:"type"`
		CheckIn       time.Time  `json:"checkIn"`
		CheckOut      *time.Time `json:"checkOut"`
		DurationHours *float64   `json:"durationHours"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	typ, err := domain.ParseSessionType(domain.CoalesceStr(req.Type, string(domain.SessionWork)))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.execute(c, http.StatusCreated, engine.ManualNewSession{
		Type:          typ,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		DurationHours: req.DurationHours,
	})
}

// ResetToday handles POST /api/reset.
func (h *Handler) ResetToday(c *gin.Context) {
	t, ok := h.tracker(c)
	if !ok {
		return
	}
	res, err := t.Execute(c.Request.Context(), engine.ResetToday{})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": res.Removed})
}

// SetTarget handles PUT /api/target. Omitting hours clears the override.
func (h *Handler) SetTarget(c *gin.Context) {
	var req struct {
		Hours *float64 `json:"hours"`
	}
	if !bindOptional(c, &req) {
		return
	}
	hours := domain.Float64FromPtrWithDefault(0, req.Hours)
	t, ok := h.tracker(c)
	if !ok {
		return
	}
	if _, err := t.Execute(c.Request.Context(), engine.SetCustomTarget{Hours: hours}); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customTargetHours": hours})
}

// Sync handles POST /api/sync.
func (h *Handler) Sync(c *gin.Context) {
	t, ok := h.tracker(c)
	if !ok {
		return
	}
	if err := t.SyncNow(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	view, err := t.Today(c.Request.Context(), contract.NewTodayRequest())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"syncStatus": view.SyncStatus})
}
