package transactions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/careslot/careslot-server/cmd/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockedRouter(t *testing.T) (*mux.Router, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	router := mux.NewRouter()
	NewTransactionHandler(db).RegisterRoutes(router)
	return router, mock
}

func authedRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	token, err := utils.GenerateToken("ops@clinic.example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestGetAllTransactions(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	t.Run("lists the ledger", func(t *testing.T) {
		router, mock := newMockedRouter(t)
		mock.ExpectQuery(`SELECT count`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT .* FROM "transactions"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "appointment_id", "amount", "method", "purpose"}).
				AddRow(1, "abc-123", 500.0, "UPI", "Consultation"))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(t, "/transactions"))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, float64(1), body["total"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count failure is reported", func(t *testing.T) {
		router, mock := newMockedRouter(t)
		mock.ExpectQuery(`SELECT count`).WillReturnError(fmt.Errorf("connection reset"))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(t, "/transactions"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("rejects unauthenticated callers", func(t *testing.T) {
		router, _ := newMockedRouter(t)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
