package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlelemon/internal/events"
	"littlelemon/internal/models"
)

const bobBooking = `{"name":"Bob","no_of_guests":3,"booking_date":"2024-05-01T19:00:00Z"}`

func (e *testEnv) bookingCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Model(&models.Booking{}).Count(&n).Error)
	return n
}

func httptestServer(t *testing.T, env *testEnv) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(env.server.Router)
	t.Cleanup(srv.Close)
	return srv
}

func TestBooking_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	w := env.do(http.MethodPost, "/Booking/tables/", bobBooking, token)
	require.Equal(t, http.StatusCreated, w.Code)
	id := int(decode(t, w)["id"].(float64))
	item := fmt.Sprintf("/Booking/tables/%d/", id)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/Booking/tables/", ""},
		{http.MethodPost, "/Booking/tables/", bobBooking},
		{http.MethodGet, item, ""},
		{http.MethodPut, item, `{"name":"Eve","no_of_guests":2,"booking_date":"2024-05-02T19:00:00Z"}`},
		{http.MethodPatch, item, `{"name":"Eve"}`},
		{http.MethodDelete, item, ""},
		{http.MethodGet, "/Booking/tables/999/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.body, "")

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Token", w.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, w.Body.String())
		})
	}

	assert.Equal(t, 1, env.bookingCount(t))
	w = env.do(http.MethodGet, item, "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bob", decode(t, w)["name"])
}

func TestBooking_RejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "retired", "oldpass", false)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"garbage token", "Token not-a-jwt", http.StatusUnauthorized},
		{"wrong basic password", basicAuth(testUser, "nope"), http.StatusUnauthorized},
		{"unknown basic user", basicAuth("ghost", testPassword), http.StatusUnauthorized},
		{"unknown scheme", "Digest abc", http.StatusUnauthorized},
		{"inactive basic user", basicAuth("retired", "oldpass"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/Booking/tables/", bobBooking, tt.header)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, 0, env.bookingCount(t))
}

func TestBooking_InactiveUserTokenIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	u, err := env.users.ByUsername(context.Background(), testUser)
	require.NoError(t, err)
	require.NoError(t, env.users.SetActive(context.Background(), u.ID, false))

	w := env.do(http.MethodGet, "/Booking/tables/", "", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"detail":"User inactive or deleted."}`, w.Body.String())
}

func TestBooking_AuthenticatedScenario(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/Booking/tables/", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	token := env.token(t)
	w = env.do(http.MethodPost, "/Booking/tables/", bobBooking, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int(decode(t, w)["id"].(float64))

	w = env.do(http.MethodGet, fmt.Sprintf("/Booking/tables/%d/", id), "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(
		`{"id":%d,"name":"Bob","no_of_guests":3,"booking_date":"2024-05-01T19:00:00Z"}`, id,
	), w.Body.String())
}

func TestBooking_BasicAuthOpensGate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/Booking/tables/", "", basicAuth(testUser, testPassword))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestBooking_BearerScheme(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + strings.TrimPrefix(env.token(t), "Token ")

	w := env.do(http.MethodGet, "/Booking/tables/", "", bearer)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBooking_GuestBounds(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	body := func(guests int) string {
		return fmt.Sprintf(`{"name":"Bob","no_of_guests":%d,"booking_date":"2024-05-01T19:00:00Z"}`, guests)
	}

	for _, guests := range []int{0, 7, -3, 100} {
		w := env.do(http.MethodPost, "/Booking/tables/", body(guests), token)
		require.Equal(t, http.StatusBadRequest, w.Code, guests)
		assert.Contains(t, decode(t, w), "no_of_guests")
	}
	assert.Equal(t, 0, env.bookingCount(t))

	for _, guests := range []int{1, 6} {
		w := env.do(http.MethodPost, "/Booking/tables/", body(guests), token)
		assert.Equal(t, http.StatusCreated, w.Code, guests)
	}
	assert.Equal(t, 2, env.bookingCount(t))
}

func TestBooking_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"missing name", `{"no_of_guests":2,"booking_date":"2024-05-01T19:00:00Z"}`, "name", "This field is required."},
		{"blank name", `{"name":"","no_of_guests":2,"booking_date":"2024-05-01T19:00:00Z"}`, "name", "This field may not be blank."},
		{"name too long", `{"name":"` + strings.Repeat("b", 256) + `","no_of_guests":2,"booking_date":"2024-05-01T19:00:00Z"}`, "name", "Ensure this field has no more than 255 characters."},
		{"missing date", `{"name":"Bob","no_of_guests":2}`, "booking_date", "This field is required."},
		{"bad date", `{"name":"Bob","no_of_guests":2,"booking_date":"tomorrow"}`, "booking_date", msgInvalidDateTime},
		{"numeric date", `{"name":"Bob","no_of_guests":2,"booking_date":12}`, "booking_date", msgInvalidDateTime},
		{"guests as string", `{"name":"Bob","no_of_guests":"two","booking_date":"2024-05-01T19:00:00Z"}`, "no_of_guests", "A valid integer is required."},
		{"too few guests", `{"name":"Bob","no_of_guests":0,"booking_date":"2024-05-01T19:00:00Z"}`, "no_of_guests", "Ensure this value is greater than or equal to 1."},
		{"too many guests", `{"name":"Bob","no_of_guests":7,"booking_date":"2024-05-01T19:00:00Z"}`, "no_of_guests", "Ensure this value is less than or equal to 6."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/Booking/tables/", tt.body, token)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, []interface{}{tt.msg}, decode(t, w)[tt.field])
		})
	}
	assert.Equal(t, 0, env.bookingCount(t))
}

func TestBooking_DateFormats(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	tests := []struct {
		in   string
		want string
	}{
		{"2024-05-01T19:00:00+02:00", "2024-05-01T17:00:00Z"},
		{"2024-05-01T19:00", "2024-05-01T19:00:00Z"},
		{"2024-05-01 19:00:00", "2024-05-01T19:00:00Z"},
	}

	for _, tt := range tests {
		w := env.do(http.MethodPost, "/Booking/tables/",
			`{"name":"Bob","no_of_guests":2,"booking_date":"`+tt.in+`"}`, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		id := int(decode(t, w)["id"].(float64))

		w = env.do(http.MethodGet, fmt.Sprintf("/Booking/tables/%d/", id), "", token)
		got, err := time.Parse(time.RFC3339, decode(t, w)["booking_date"].(string))
		require.NoError(t, err)
		want, _ := time.Parse(time.RFC3339, tt.want)
		assert.True(t, want.Equal(got), "%s: got %s", tt.in, got)
	}
}

func TestBooking_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	w := env.do(http.MethodPost, "/Booking/tables/", bobBooking, token)
	require.Equal(t, http.StatusCreated, w.Code)
	id := int(decode(t, w)["id"].(float64))
	path := fmt.Sprintf("/Booking/tables/%d/", id)

	w = env.do(http.MethodPut, path, `{"name":"Bob"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, path, `{"no_of_guests":5}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "Bob", got["name"])
	assert.Equal(t, float64(5), got["no_of_guests"])

	w = env.do(http.MethodPut, path, `{"name":"Alice","no_of_guests":2,"booking_date":"2024-06-01T20:00:00Z"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(
		`{"id":%d,"name":"Alice","no_of_guests":2,"booking_date":"2024-06-01T20:00:00Z"}`, id,
	), w.Body.String())

	w = env.do(http.MethodDelete, path, "", token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, path, "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPatch, path, `{"no_of_guests":5}`, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{"booking.created", "booking.updated", "booking.updated", "booking.deleted"}, env.events.types())
}

func TestBooking_EventsReachWebSocket(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	srv := httptestServer(t, env)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {token}})
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	w := env.do(http.MethodPost, "/Booking/tables/", bobBooking, token)
	require.Equal(t, http.StatusCreated, w.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev events.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "booking.created", ev.EventType)
	assert.Equal(t, "little-lemon-test", ev.Producer)
	assert.Contains(t, string(ev.Payload), `"name":"Bob"`)
}
