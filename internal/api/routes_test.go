package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/cheekoai/cheeko-server/adapters"
	"github.com/cheekoai/cheeko-server/domain/entities"
	"github.com/cheekoai/cheeko-server/internal/saga"
	"github.com/cheekoai/cheeko-server/internal/websocket"
	"github.com/cheekoai/cheeko-server/usecase"
)

type apiFixture struct {
	echo        *echo.Echo
	credentials *adapters.MemoryCredentialRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()

	credentials := adapters.NewMemoryCredentialRepository()
	toys := adapters.NewMemoryToyRepository()
	profiles := adapters.NewMemoryProfileRepository()
	users := adapters.NewMemoryUserRepository()

	runner := saga.NewRunner(logger)
	events := usecase.NoopPublisher()

	server := NewServer(
		usecase.NewUserService(users, logger),
		usecase.NewActivationService(credentials, toys, runner, events, logger),
		usecase.NewToyService(toys, credentials, runner, events, logger),
		usecase.NewProfileService(profiles, logger),
		websocket.NewHub(logger),
		logger,
	)

	e := echo.New()
	server.Register(e)

	return &apiFixture{echo: e, credentials: credentials}
}

func (f *apiFixture) request(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) registerUser(t *testing.T, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"name":"Parent","password":"supersecret"}`, email)
	rec := f.request(t, http.MethodPost, "/api/v1/users/register", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Register failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode auth response: %v", err)
	}
	return resp.Token
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.request(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t)
	f.registerUser(t, "parent@example.com")

	rec := f.request(t, http.MethodPost, "/api/v1/users/login", "",
		`{"email":"parent@example.com","password":"supersecret"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 on login, got %d %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodPost, "/api/v1/users/login", "",
		`{"email":"parent@example.com","password":"wrong-password"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 on bad password, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodPost, "/api/v1/users/register", "",
		`{"email":"parent@example.com","name":"Again","password":"supersecret"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 on duplicate email, got %d", rec.Code)
	}
}

func TestToysRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/api/v1/toys", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodGet, "/api/v1/toys", "garbage-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with invalid token, got %d", rec.Code)
	}
}

func TestActivationFlow(t *testing.T) {
	f := newAPIFixture(t)
	if err := f.credentials.AddCredential("123456", "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatalf("Failed to seed credential: %v", err)
	}
	token := f.registerUser(t, "parent@example.com")

	t.Run("BadFormat", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/toys/activate", token, `{"code":"12ab"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("UnknownCode", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/toys/activate", token, `{"code":"999999"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d %s", rec.Code, rec.Body.String())
		}
	})

	var toyID string
	t.Run("Success", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/toys/activate", token, `{"code":"123456"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d %s", rec.Code, rec.Body.String())
		}
		var toy entities.Toy
		if err := json.Unmarshal(rec.Body.Bytes(), &toy); err != nil {
			t.Fatalf("Failed to decode toy: %v", err)
		}
		if toy.Name != entities.DefaultToyName || toy.MacID != "AA:BB:CC:DD:EE:FF" {
			t.Errorf("Unexpected toy payload: %+v", toy)
		}
		toyID = toy.ID
	})

	t.Run("SecondActivationConflicts", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/toys/activate", token, `{"code":"123456"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Listing", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/v1/toys", token, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		var toys []entities.Toy
		if err := json.Unmarshal(rec.Body.Bytes(), &toys); err != nil {
			t.Fatalf("Failed to decode listing: %v", err)
		}
		if len(toys) != 1 {
			t.Errorf("Expected one toy, got %d", len(toys))
		}
	})

	t.Run("Update", func(t *testing.T) {
		rec := f.request(t, http.MethodPatch, "/api/v1/toys/"+toyID, token, `{"language":"Hindi"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d %s", rec.Code, rec.Body.String())
		}
		var toy entities.Toy
		if err := json.Unmarshal(rec.Body.Bytes(), &toy); err != nil {
			t.Fatalf("Failed to decode toy: %v", err)
		}
		if toy.Language != "Hindi" {
			t.Errorf("Expected patched language, got %s", toy.Language)
		}
	})

	t.Run("UpdateUnknownOption", func(t *testing.T) {
		rec := f.request(t, http.MethodPatch, "/api/v1/toys/"+toyID, token, `{"language":"Klingon"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("ForeignToyHidden", func(t *testing.T) {
		other := f.registerUser(t, "other@example.com")
		rec := f.request(t, http.MethodGet, "/api/v1/toys/"+toyID, other, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for foreign toy, got %d", rec.Code)
		}
	})

	t.Run("Unbind", func(t *testing.T) {
		rec := f.request(t, http.MethodDelete, "/api/v1/toys/"+toyID, token, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d %s", rec.Code, rec.Body.String())
		}

		rec = f.request(t, http.MethodDelete, "/api/v1/toys/"+toyID, token, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 on second unbind, got %d", rec.Code)
		}
	})
}

func TestDeviceAuth(t *testing.T) {
	f := newAPIFixture(t)
	if err := f.credentials.AddCredential("123456", "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatalf("Failed to seed credential: %v", err)
	}
	token := f.registerUser(t, "parent@example.com")

	// Before activation the device cannot authenticate.
	body := `{"mac_id":"AA:BB:CC:DD:EE:FF","activation_code":"123456"}`
	rec := f.request(t, http.MethodPost, "/api/v1/device/auth", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 before activation, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodPost, "/api/v1/toys/activate", token, `{"code":"123456"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Activation failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodPost, "/api/v1/device/auth", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 after activation, got %d %s", rec.Code, rec.Body.String())
	}
	var resp DeviceAuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode device auth response: %v", err)
	}
	if resp.Token == "" || resp.MacID != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Unexpected device auth payload: %+v", resp)
	}
}

func TestDeviceRelease(t *testing.T) {
	f := newAPIFixture(t)
	if err := f.credentials.AddCredential("123456", "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatalf("Failed to seed credential: %v", err)
	}
	token := f.registerUser(t, "parent@example.com")

	rec := f.request(t, http.MethodPost, "/api/v1/toys/activate", token, `{"code":"123456"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Activation failed: %d %s", rec.Code, rec.Body.String())
	}

	body := `{"mac_id":"AA:BB:CC:DD:EE:FF"}`

	rec = f.request(t, http.MethodPost, "/api/v1/device/release", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodPost, "/api/v1/device/release", token, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without mac id, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodPost, "/api/v1/device/release", token, body)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d %s", rec.Code, rec.Body.String())
	}
	cred, err := f.credentials.GetByMacID(context.Background(), "AA:BB:CC:DD:EE:FF")
	if err != nil || cred == nil {
		t.Fatalf("Failed to read credential: %v %v", cred, err)
	}
	if cred.IsActive {
		t.Error("Expected device flag cleared after release")
	}

	// Releasing an already-inactive device is still a success.
	rec = f.request(t, http.MethodPost, "/api/v1/device/release", token, body)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 on repeated release, got %d", rec.Code)
	}
}

func TestProfileLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.registerUser(t, "parent@example.com")

	rec := f.request(t, http.MethodGet, "/api/v1/profile", token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before first save, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodPut, "/api/v1/profile", token,
		`{"parent_name":"Parent","parent_email":"parent@example.com","parent_phone_number":"+1555"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on save, got %d %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodGet, "/api/v1/profile", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 after save, got %d", rec.Code)
	}
	var profile entities.ParentProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if profile.ParentName != "Parent" || profile.ParentPhoneNumber != "+1555" {
		t.Errorf("Unexpected profile: %+v", profile)
	}
}
