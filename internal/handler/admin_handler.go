package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"linguaformula/internal/admin"
	"linguaformula/internal/auth"
	"linguaformula/internal/backend"
	"linguaformula/internal/entity"
)

const lastAdminMessage = "You cannot revoke your own admin when you are the only admin."

// toggleRefusal is the banner text shown when CanToggle refuses.
func toggleRefusal(err error) string {
	switch {
	case errors.Is(err, admin.ErrLastAdmin):
		return lastAdminMessage
	case errors.Is(err, admin.ErrUnknownUser):
		return "User not found"
	default:
		return "Update failed"
	}
}

type AdminHandler struct {
	api    *backend.Client
	auth   *auth.Provider
	rd     *Renderer
	logger *zap.Logger
}

func NewAdminHandler(api *backend.Client, p *auth.Provider, rd *Renderer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{api: api, auth: p, rd: rd, logger: logger}
}

type adminView struct {
	Rows []admin.Row
}

func (h *AdminHandler) renderUsers(w http.ResponseWriter, r *http.Request, users []entity.User, errMsg string) {
	p := h.rd.page(r, "Admin")
	p.Error = errMsg
	p.Data = adminView{Rows: admin.Rows(users, p.User)}
	h.rd.render(w, r, http.StatusOK, "admin", p)
}

func (h *AdminHandler) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.api.AdminUsers(r.Context(), h.auth.Credentials(r))
	msg := ""
	if err != nil {
		h.logger.Warn("load users", zap.Error(err))
		msg = backend.Message(err, "Failed to load users")
	}
	h.renderUsers(w, r, users, msg)
}

// ToggleAdmin grants or revokes admin rights. Revoking your own rights as
// the only admin is refused before the backend is called.
func (h *AdminHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.rd.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	creds := h.auth.Credentials(r)
	self := auth.FromContext(ctx).User
	grant := r.FormValue("is_admin") == "true"

	users, err := h.api.AdminUsers(ctx, creds)
	if err != nil {
		h.logger.Warn("load users", zap.Error(err))
		h.renderUsers(w, r, nil, backend.Message(err, "Failed to load users"))
		return
	}

	if !grant {
		if err := admin.CanToggle(users, self, id); err != nil {
			if errors.Is(err, admin.ErrLastAdmin) {
				h.logger.Info("refused last admin self-revocation", zap.Int("user_id", id))
			}
			h.renderUsers(w, r, users, toggleRefusal(err))
			return
		}
	}

	if err := h.api.SetAdmin(ctx, id, grant, creds); err != nil {
		h.logger.Warn("set admin", zap.Int("user_id", id), zap.Bool("is_admin", grant), zap.Error(err))
		h.renderUsers(w, r, users, backend.Message(err, "Update failed"))
		return
	}
	redirect(w, r, "/admin")
}
