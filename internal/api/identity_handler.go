package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/identityswitcher/internal/logutil"
	"github.com/fluxbase-eu/identityswitcher/internal/observability"
	"github.com/fluxbase-eu/identityswitcher/internal/switcher"
)

// SessionCookieName carries the access token of the active session.
const SessionCookieName = "idsw_session"

// IdentityHandler serves the identity switcher endpoints.
type IdentityHandler struct {
	svc          *switcher.Service
	settings     switcher.Settings
	logoffURL    string
	secureCookie bool
	sessionTTL   time.Duration
	metrics      *observability.Metrics
}

// NewIdentityHandler creates the handler. settings are read-only module
// settings applied to every request; logoffURL receives the redirect when
// the anonymous sentinel is selected.
func NewIdentityHandler(svc *switcher.Service, settings switcher.Settings, logoffURL string, secureCookie bool, sessionTTL time.Duration) *IdentityHandler {
	return &IdentityHandler{
		svc:          svc,
		settings:     settings,
		logoffURL:    logoffURL,
		secureCookie: secureCookie,
		sessionTTL:   sessionTTL,
	}
}

// SetMetrics sets the metrics instance for switch outcome counters.
func (h *IdentityHandler) SetMetrics(m *observability.Metrics) {
	h.metrics = m
}

// internalError logs the collaborator failure and returns the generic
// server error. Callers deliberately cannot distinguish failure causes.
func internalError(c fiber.Ctx, err error, msg string) error {
	log.Error().Err(err).Str("path", c.Path()).Msg(msg)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}

func tenantParam(c fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("tenantID"))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// GetSearchItems returns the field names users can be searched by.
// GET /api/v1/tenants/:tenantID/identity/search-items
func (h *IdentityHandler) GetSearchItems(c fiber.Ctx) error {
	tenantID, ok := tenantParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tenant id",
		})
	}

	fields, err := h.svc.SearchFields(c.RequestCtx(), tenantID)
	if err != nil {
		return internalError(c, err, "Failed to list search items")
	}
	return c.JSON(fields)
}

// GetUsers returns the selectable user list for the search parameters.
// GET /api/v1/tenants/:tenantID/identity/users?searchText=&selectedSearchItem=&onlyDefault=
func (h *IdentityHandler) GetUsers(c fiber.Ctx) error {
	tenantID, ok := tenantParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tenant id",
		})
	}

	// An absent searchText lists every user; an empty one is a search.
	var searchText *string
	if c.RequestCtx().QueryArgs().Has("searchText") {
		v := c.Query("searchText")
		searchText = &v
	}
	onlyDefault, _ := strconv.ParseBool(c.Query("onlyDefault", "false"))

	query := switcher.Query{
		SearchText:  searchText,
		SearchField: c.Query("selectedSearchItem"),
		OnlyDefault: onlyDefault,
	}

	claims := callerClaims(c)
	currentUserID, err := claims.UserID()
	if err != nil {
		return internalError(c, err, "Failed to read caller identity")
	}

	if searchText != nil {
		log.Debug().
			Int("tenant_id", tenantID).
			Str("field", query.SearchField).
			Str("search_text", logutil.SanitizeSearchText(*searchText)).
			Msg("User search")
	}

	list, err := h.svc.ListUsers(c.RequestCtx(), tenantID, query, h.settings, currentUserID)
	if err != nil {
		return internalError(c, err, "Failed to list users")
	}
	return c.JSON(list)
}

// SwitchUserRequest is the body of the switch endpoint.
type SwitchUserRequest struct {
	SelectedUserID   *int    `json:"selectedUserId" form:"selectedUserId"`
	SelectedUserName *string `json:"selectedUserName" form:"selectedUserName"`
}

// SwitchUser replaces the caller's session with one for the selected user.
// POST /api/v1/tenants/:tenantID/identity/switch
func (h *IdentityHandler) SwitchUser(c fiber.Ctx) error {
	tenantID, ok := tenantParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tenant id",
		})
	}

	var req SwitchUserRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Error().Err(err).Msg("Failed to parse switch request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.SelectedUserID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "selectedUserId is required",
		})
	}
	if req.SelectedUserName == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "selectedUserName is required",
		})
	}

	claims := callerClaims(c)
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return internalError(c, err, "Failed to read caller session")
	}

	result, err := h.svc.Switch(c.RequestCtx(), tenantID, switcher.SwitchRequest{
		SelectedUserID:   *req.SelectedUserID,
		SelectedUserName: *req.SelectedUserName,
		CurrentSessionID: sessionID,
		RemoteAddr:       c.IP(),
	})
	if err != nil {
		h.observeSwitch("error")
		return internalError(c, err, "Failed to switch user")
	}

	if result.LogOff {
		h.observeSwitch("logoff")
		h.clearSessionCookie(c)
		return c.Redirect().Status(fiber.StatusSeeOther).To(h.logoffURL)
	}

	h.observeSwitch("switched")
	h.setSessionCookie(c, result.Token)
	return c.JSON(fiber.Map{
		"status":    "ok",
		"sessionId": result.Session.ID,
	})
}

func (h *IdentityHandler) observeSwitch(outcome string) {
	if h.metrics != nil {
		h.metrics.ObserveSwitch(outcome)
	}
}

// setSessionCookie stores the access token in an httpOnly cookie.
// SameSite=Lax so the cookie survives the post-switch navigation.
func (h *IdentityHandler) setSessionCookie(c fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func (h *IdentityHandler) clearSessionCookie(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
