package httpapi

import (
	"net/http"
	"time"

	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/services"
)

type keyWrapDTO struct {
	Salt             string `json:"salt"`
	WrappedMasterKey string `json:"wrapped_master_key"`
	Nonce            string `json:"nonce"`
}

type accountDTO struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Joined   time.Time `json:"joined"`
	LastSeen time.Time `json:"last_seen"`
}

type subscriptionDTO struct {
	Status   string `json:"status"`
	Plan     string `json:"plan"`
	PlanName string `json:"plan_name"`
}

func toAccountDTO(a *models.Account) accountDTO {
	return accountDTO{
		ID:       a.ID,
		Email:    a.Email,
		Joined:   a.Joined,
		LastSeen: a.LastSeen,
	}
}

func toSubscriptionDTO(sub *models.Subscription) *subscriptionDTO {
	if sub == nil {
		return nil
	}
	return &subscriptionDTO{
		Status:   sub.Status,
		Plan:     sub.Plan,
		PlanName: sub.PlanName,
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.accounts.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		// no detail on why; the log carries only the outcome
		s.logger.Info(r.Context(), "Login failed")
		respondServiceError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Login", "account_id", res.Account.ID)
	respondJSON(w, http.StatusOK, map[string]any{
		"token":   res.Token,
		"account": toAccountDTO(res.Account),
		"key_wrap": keyWrapDTO{
			Salt:             res.KeyWrap.Salt,
			WrappedMasterKey: res.KeyWrap.WrappedMasterKey,
			Nonce:            res.KeyWrap.Nonce,
		},
		"subscription": toSubscriptionDTO(res.Subscription),
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string      `json:"email"`
		Password string      `json:"password"`
		KeyWrap  *keyWrapDTO `json:"key_wrap"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var wrap models.KeyWrap
	if req.KeyWrap != nil {
		wrap = models.KeyWrap{
			Salt:             req.KeyWrap.Salt,
			WrappedMasterKey: req.KeyWrap.WrappedMasterKey,
			Nonce:            req.KeyWrap.Nonce,
		}
	}

	account, err := s.accounts.Register(r.Context(), req.Email, req.Password, wrap)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.logger.Info(r.Context(), "Signup", "account_id", account.ID)
	respondJSON(w, http.StatusCreated, map[string]any{"account": toAccountDTO(account)})
}

func (s *Server) handleRenewToken(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())

	token, err := s.accounts.RenewToken(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())

	account, sub, err := s.accounts.GetProfile(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"account":      toAccountDTO(account),
		"subscription": toSubscriptionDTO(sub),
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	accountID := accountIDFromContext(r.Context())

	var req struct {
		Email    *string     `json:"email"`
		Password *string     `json:"password"`
		KeyWrap  *keyWrapDTO `json:"key_wrap"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := services.AccountUpdate{
		Email:    req.Email,
		Password: req.Password,
	}
	if req.KeyWrap != nil {
		upd.KeyWrap = &models.KeyWrap{
			Salt:             req.KeyWrap.Salt,
			WrappedMasterKey: req.KeyWrap.WrappedMasterKey,
			Nonce:            req.KeyWrap.Nonce,
		}
	}

	account, err := s.accounts.Update(r.Context(), accountID, upd)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"account": toAccountDTO(account)})
}
