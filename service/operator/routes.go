package operator

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/careslot/careslot-server/cmd/utils"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// Handler authenticates the clinic operator. There is a single
// operator account, configured through the environment; patients book
// anonymously and never log in.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.handleLogin).Methods("POST")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	operatorEmail := os.Getenv("OPERATOR_EMAIL")
	passwordHash := os.Getenv("OPERATOR_PASSWORD_HASH")
	if operatorEmail == "" || passwordHash == "" {
		http.Error(w, "Operator login is not configured", http.StatusInternalServerError)
		return
	}

	if loginRequest.Email != operatorEmail {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(loginRequest.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	accessToken, err := utils.GenerateToken(operatorEmail, 12*time.Hour)
	if err != nil {
		http.Error(w, "Error generating access token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"access_token": accessToken,
	})
}
