package api

import (
	"net/http"

	mwhttp "github.com/txn2/chat-platform/pkg/http"
	"github.com/txn2/chat-platform/pkg/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signUp handles POST /api/v1/auth/signup.
//
//	@Summary		Register
//	@Description	Creates a member account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		user.SignUpInput	true	"Account"
//	@Success		201		{object}	user.User
//	@Failure		400		{object}	mwhttp.Problem
//	@Failure		409		{object}	mwhttp.Problem
//	@Router			/auth/signup [post]
func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var in user.SignUpInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	u, err := h.deps.Accounts.SignUp(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	mwhttp.WriteJSON(w, http.StatusCreated, u)
}

// login handles POST /api/v1/auth/login.
//
//	@Summary		Log in
//	@Description	Exchanges credentials for a Bearer access token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	user.LoginResult
//	@Failure		401		{object}	mwhttp.Problem
//	@Failure		404		{object}	mwhttp.Problem
//	@Router			/auth/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.deps.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	mwhttp.WriteJSON(w, http.StatusOK, res)
}
