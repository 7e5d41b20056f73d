package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/farellandr/seatbook/internal/helpers"
	"github.com/farellandr/seatbook/internal/inventory"
	"github.com/farellandr/seatbook/internal/models"
	"github.com/farellandr/seatbook/internal/server"
	"github.com/farellandr/seatbook/internal/storage/memstore"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	signer *helpers.ReceiptSigner
}

func newTestAPI(t *testing.T) *testAPI {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := inventory.NewService(memstore.New(), inventory.WithLogger(logrus.NewEntry(logger)))
	signer := helpers.NewReceiptSigner("test-secret")

	return &testAPI{
		t:      t,
		router: server.NewRouter(svc, signer, logger, []string{"http://localhost:3000"}),
		signer: signer,
	}
}

func (api *testAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	api.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(api.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (api *testAPI) createConcert() string {
	api.t.Helper()

	w := api.do(http.MethodPost, "/events", gin.H{
		"name": "Concert",
		"sections": []gin.H{
			{"name": "A", "rows": []gin.H{{"name": "1", "totalSeats": 10}, {"name": "2", "totalSeats": 10}}},
		},
	})
	require.Equal(api.t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(api.t, w)
	event := body["event"].(map[string]any)
	return event["id"].(string)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestCreateEvent(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/events", gin.H{
		"name":     "Concert",
		"sections": []gin.H{{"name": "A", "rows": []gin.H{{"name": "1", "totalSeats": 10}}}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Event created successfully", body["message"])
	event := body["event"].(map[string]any)
	assert.Equal(t, "Concert", event["name"])
	sections := event["sections"].([]any)
	row := sections[0].(map[string]any)["rows"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 10, row["totalSeats"])
	assert.EqualValues(t, 0, row["bookedSeats"])
}

func TestCreateEvent_Invalid(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{name: "malformed json", body: "{", message: "Invalid input. Please check your fields."},
		{name: "empty sections", body: gin.H{"name": "Concert", "sections": []gin.H{}}, message: "Name and sections are required"},
		{name: "missing name", body: gin.H{"sections": []gin.H{{"name": "A"}}}, message: "Name and sections are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/events", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			body := decode(t, w)
			assert.Equal(t, "Bad Request", body["error"])
			assert.Equal(t, tt.message, body["message"])
		})
	}

	w := api.do(http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["event"])
}

func TestListAndGetEvent(t *testing.T) {
	api := newTestAPI(t)
	id := api.createConcert()

	w := api.do(http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Events retrieved successfully", body["message"])
	assert.Len(t, body["event"], 1)

	w = api.do(http.MethodGet, "/events/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["event"].(map[string]any)["id"])

	w = api.do(http.MethodGet, "/events/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Event not found", decode(t, w)["message"])

	w = api.do(http.MethodGet, "/events/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPurchaseFlow(t *testing.T) {
	api := newTestAPI(t)
	id := api.createConcert()

	w := api.do(http.MethodPost, "/events/"+id+"/purchase", gin.H{"sectionName": "A", "rowName": "1", "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Tickets purchased successfully", body["message"])
	assert.Equal(t, "A", body["section"])
	assert.Equal(t, "1", body["row"])
	assert.EqualValues(t, 3, body["purchasedQuantity"])
	assert.EqualValues(t, 7, body["remainingSeats"])
	assert.Equal(t, false, body["groupDiscount"])
	assert.NotEmpty(t, body["purchaseId"])

	w = api.do(http.MethodPost, "/events/"+id+"/purchase", gin.H{"sectionName": "A", "rowName": "1", "quantity": 8})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only 7 seats are available", decode(t, w)["message"])

	w = api.do(http.MethodPost, "/events/"+id+"/purchase", gin.H{"sectionName": "A", "rowName": "2", "quantity": 4})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, true, body["groupDiscount"])
	assert.EqualValues(t, 6, body["remainingSeats"])

	w = api.do(http.MethodGet, "/events/"+id+"/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, id, body["eventId"])
	assert.Equal(t, "Concert", body["eventName"])
	rows := body["availability"].([]any)[0].(map[string]any)["rows"].([]any)
	first := rows[0].(map[string]any)
	assert.EqualValues(t, 7, first["availableSeats"])
	assert.EqualValues(t, 3, first["bookedSeats"])
	assert.EqualValues(t, 10, first["totalSeats"])
}

func TestPurchase_Errors(t *testing.T) {
	api := newTestAPI(t)
	id := api.createConcert()

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{name: "missing quantity", path: "/events/" + id + "/purchase", body: gin.H{"sectionName": "A", "rowName": "1"}, status: http.StatusBadRequest},
		{name: "zero quantity", path: "/events/" + id + "/purchase", body: gin.H{"sectionName": "A", "rowName": "1", "quantity": 0}, status: http.StatusBadRequest},
		{name: "unknown event", path: "/events/" + uuid.NewString() + "/purchase", body: gin.H{"sectionName": "A", "rowName": "1", "quantity": 1}, status: http.StatusNotFound},
		{name: "unknown section", path: "/events/" + id + "/purchase", body: gin.H{"sectionName": "Z", "rowName": "1", "quantity": 1}, status: http.StatusNotFound},
		{name: "unknown row", path: "/events/" + id + "/purchase", body: gin.H{"sectionName": "A", "rowName": "9", "quantity": 1}, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := api.do(http.MethodGet, "/events/"+uuid.NewString()+"/availability", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPurchase_IdempotencyKey(t *testing.T) {
	api := newTestAPI(t)
	id := api.createConcert()
	path := "/events/" + id + "/purchase"

	first := api.do(http.MethodPost, path, gin.H{"sectionName": "A", "rowName": "1", "quantity": 2}, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusOK, first.Code)

	again := api.do(http.MethodPost, path, gin.H{"sectionName": "A", "rowName": "1", "quantity": 2}, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode(t, first)["purchaseId"], decode(t, again)["purchaseId"])

	conflict := api.do(http.MethodPost, path, gin.H{"sectionName": "A", "rowName": "1", "quantity": 5}, "Idempotency-Key", "abc")
	assert.Equal(t, http.StatusConflict, conflict.Code)
}

func TestReceipt(t *testing.T) {
	api := newTestAPI(t)
	id := api.createConcert()

	w := api.do(http.MethodPost, "/events/"+id+"/purchase", gin.H{"sectionName": "A", "rowName": "1", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	purchaseID := decode(t, w)["purchaseId"].(string)

	w = api.do(http.MethodGet, "/events/"+id+"/purchases/"+purchaseID+"/receipt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = api.do(http.MethodGet, "/events/"+id+"/purchases/"+uuid.NewString()+"/receipt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyReceipt(t *testing.T) {
	api := newTestAPI(t)
	id := api.createConcert()

	w := api.do(http.MethodPost, "/events/"+id+"/purchase", gin.H{"sectionName": "A", "rowName": "2", "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	purchaseID := body["purchaseId"].(string)

	eventID := uuid.MustParse(id)
	signature := api.signer.Sign(purchaseFor(t, purchaseID, eventID))
	qrData := "purchase:" + purchaseID + ";event:" + id + ";quantity:1;signature:" + signature

	w = api.do(http.MethodPost, "/receipts/verify", gin.H{"qrData": qrData})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Receipt is valid", decode(t, w)["message"])

	forged := "purchase:" + purchaseID + ";event:" + id + ";quantity:1;signature:" + strings.Repeat("0", len(signature))
	w = api.do(http.MethodPost, "/receipts/verify", gin.H{"qrData": forged})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/receipts/verify", gin.H{"qrData": "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	unknown := "purchase:" + uuid.NewString() + ";event:" + id + ";quantity:1;signature:ab"
	w = api.do(http.MethodPost, "/receipts/verify", gin.H{"qrData": unknown})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/receipts/verify", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// purchaseFor rebuilds the signed fields of the single-seat A/2 purchase.
func purchaseFor(t *testing.T, purchaseID string, eventID uuid.UUID) *models.Purchase {
	t.Helper()
	return &models.Purchase{
		ID:          uuid.MustParse(purchaseID),
		EventID:     eventID,
		SectionName: "A",
		RowName:     "2",
		Quantity:    1,
	}
}
