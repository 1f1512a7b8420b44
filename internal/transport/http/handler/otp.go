package handler

import (
	"encoding/json"
	"net/http"

	"github.com/oli-store-api/internal/application/otp"
	"github.com/oli-store-api/internal/pkg/validate"
)

// OTPHandler handles the phone OTP endpoints.
type OTPHandler struct {
	svc otp.Service
}

func NewOTPHandler(svc otp.Service) *OTPHandler { return &OTPHandler{svc: svc} }

type sendOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, err := h.svc.IssueForPhone(r.Context(), req.Phone); err != nil {
		httpError(w, err)
		return
	}
	// The code travels by SMS only, never in the response.
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent"})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ok, err := h.svc.Verify(r.Context(), req.Phone, req.OTP)
	if err != nil {
		httpError(w, err)
		return
	}
	if !ok {
		// One answer for every rejection: wrong, expired or absent.
		writeError(w, http.StatusUnauthorized, "invalid or expired OTP")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP verified"})
}

func (h *OTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		writeError(w, http.StatusBadRequest, "phone query parameter is required")
		return
	}
	verified, err := h.svc.IsRecentlyVerified(r.Context(), phone)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OTPStatusEnvelope{Verified: verified})
}
