package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/directory"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, err := h.session.Signup(c.Request.Context(), directory.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondSession(c, http.StatusCreated, identity)
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	identity, err := h.session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, identity)
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.session.Logout(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	identity, err := h.session.Current(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, identity)
}

func (h *handlers) respondSession(c *gin.Context, status int, identity *domain.Identity) {
	view, err := h.session.ViewFor(c.Request.Context(), identity.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, sessionResponse{Identity: identity, Cart: view})
}
