package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"authentication_api/internal/models"
	"authentication_api/internal/service"
)

func doAuthed(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	return w
}

func TestUserRoutes_RequireBearer(t *testing.T) {
	r := newTestRouter(&service.Service{Directory: &mockDirectory{}, Authorization: &mockAuth{parseID: 1}})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/1"},
		{http.MethodPut, "/users/1"},
		{http.MethodDelete, "/users/1"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: status=%d", tc.method, tc.path, w.Code)
		}
	}
}

func TestListUsers_Redacted(t *testing.T) {
	dir := &mockDirectory{listResp: []models.User{
		{ID: 1, Username: "alice", PasswordHash: []byte("h1"), PasswordSalt: []byte("s1")},
		{ID: 2, Username: "bob", PasswordHash: []byte("h2"), PasswordSalt: []byte("s2")},
	}}
	r := newTestRouter(&service.Service{Directory: dir, Authorization: &mockAuth{parseID: 1}})

	w := doAuthed(r, http.MethodGet, "/users", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var got listUsersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 || got.Users[0].Username != "alice" || got.Users[1].ID != 2 {
		t.Fatalf("unexpected body: %+v", got)
	}
	// "aDE=" is the base64 form of the first hash.
	if bytes.Contains(w.Body.Bytes(), []byte("aDE=")) || bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Fatalf("response leaks credential material: %s", w.Body.String())
	}
}

func TestGetUser(t *testing.T) {
	dir := &mockDirectory{getResp: models.User{ID: 5, Username: "eve"}}
	r := newTestRouter(&service.Service{Directory: dir, Authorization: &mockAuth{parseID: 1}})

	w := doAuthed(r, http.MethodGet, "/users/5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if dir.lastGetID != 5 {
		t.Fatalf("service got id %d", dir.lastGetID)
	}

	dir.getErr = service.ErrNotFound
	if w := doAuthed(r, http.MethodGet, "/users/6", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := doAuthed(r, http.MethodGet, "/users/abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", w.Code)
	}
}

func TestUpdateUser(t *testing.T) {
	dir := &mockDirectory{}
	r := newTestRouter(&service.Service{Directory: dir, Authorization: &mockAuth{parseID: 1}})

	w := doAuthed(r, http.MethodPut, "/users/3", `{"firstName":"Alicia","password":"new"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if dir.lastUpdateID != 3 {
		t.Fatalf("service got id %d", dir.lastUpdateID)
	}
	p := dir.lastPatch
	if p.Username != nil || p.LastName != nil {
		t.Fatalf("absent fields must stay nil: %+v", p)
	}
	if p.FirstName == nil || *p.FirstName != "Alicia" || p.Password == nil || *p.Password != "new" {
		t.Fatalf("unexpected patch: %+v", p)
	}

	cases := []struct {
		err  error
		want int
	}{
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrValidation, http.StatusBadRequest},
	}
	for _, tc := range cases {
		dir.updateErr = tc.err
		if w := doAuthed(r, http.MethodPut, "/users/3", `{"username":"x"}`); w.Code != tc.want {
			t.Fatalf("%v: status=%d want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestDeleteUser(t *testing.T) {
	dir := &mockDirectory{}
	r := newTestRouter(&service.Service{Directory: dir, Authorization: &mockAuth{parseID: 1}})

	if w := doAuthed(r, http.MethodDelete, "/users/9", ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if dir.lastDeleteID != 9 {
		t.Fatalf("service got id %d", dir.lastDeleteID)
	}

	dir.deleteErr = service.ErrNotFound
	if w := doAuthed(r, http.MethodDelete, "/users/9", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
