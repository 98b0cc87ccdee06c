package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"comparateur/internal/repository"
	"comparateur/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

func setupServer(t *testing.T) *Server {
	t.Helper()
	svc := service.NewServices(repository.NewMemoryStore(), "test-secret", time.Hour)
	return NewServer(svc)
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// signup регистрирует продавца и возвращает его токен
func signup(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/utilisateurs", "", map[string]any{
		"name": "Awa", "email": "awa@example.com", "password": "pw",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register code %v: %s", w.Code, w.Body)
	}
	w = doJSON(t, s, http.MethodPost, "/auth/login", "", map[string]any{"email": "awa@example.com", "password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("login code %v", w.Code)
	}
	out := decode[struct {
		Token string `json:"token"`
		User  struct {
			Name string `json:"name"`
		} `json:"user"`
	}](t, w)
	if out.Token == "" || out.User.Name != "Awa" {
		t.Fatalf("login body %s", w.Body)
	}
	return out.Token
}

func TestAuthFlow(t *testing.T) {
	s := setupServer(t)
	signup(t, s)

	// duplicate email
	w := doJSON(t, s, http.MethodPost, "/utilisateurs", "", map[string]any{
		"name": "Other", "email": "awa@example.com", "password": "x",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register code %v", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/auth/login", "", map[string]any{"email": "awa@example.com", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login code %v", w.Code)
	}
	if msg := decode[map[string]string](t, w)["message"]; msg != "invalid credentials" {
		t.Fatalf("bad login message %q", msg)
	}
}

func TestWritesRequireBearer(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodPost, "/produits", "", map[string]any{"name": "X"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create code %v", w.Code)
	}
	w = doJSON(t, s, http.MethodDelete, "/offres/1", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token code %v", w.Code)
	}
	// reads are public
	w = doJSON(t, s, http.MethodGet, "/categorie", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("public list %v %s", w.Code, w.Body)
	}
}

func TestProductFlow(t *testing.T) {
	s := setupServer(t)
	tok := signup(t, s)

	// create
	for _, n := range []string{"Écran 27", "Clavier", "Écran 24"} {
		w := doJSON(t, s, http.MethodPost, "/produits", tok, map[string]any{
			"name": n, "initialPrice": "100", "stock": 5, "availability": true,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create code %v: %s", w.Code, w.Body)
		}
	}
	// get
	w := doJSON(t, s, http.MethodGet, "/produits/1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get code %v", w.Code)
	}
	if owner := decode[map[string]any](t, w)["ownerUserId"]; owner != float64(1) {
		t.Fatalf("owner %v", owner)
	}
	// patch
	w = doJSON(t, s, http.MethodPatch, "/produits/1", tok, map[string]any{"stock": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("patch code %v", w.Code)
	}
	if got := decode[map[string]any](t, w); got["stock"] != float64(2) || got["name"] != "Écran 27" {
		t.Fatalf("patched %v", got)
	}
	// list, paginated envelope
	w = doJSON(t, s, http.MethodGet, "/produits?nom=%C3%A9cran&page=1&limit=1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	page := decode[struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
		Page  int              `json:"page"`
		Limit int              `json:"limit"`
	}](t, w)
	if page.Total != 2 || len(page.Data) != 1 || page.Limit != 1 {
		t.Fatalf("list page %+v", page)
	}
	// invalid patch
	w = doJSON(t, s, http.MethodPatch, "/produits/1", tok, map[string]any{"stock": -3})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid patch code %v", w.Code)
	}
	// delete
	w = doJSON(t, s, http.MethodDelete, "/produits/1", tok, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete code %v", w.Code)
	}
	w = doJSON(t, s, http.MethodDelete, "/produits/1", tok, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete code %v", w.Code)
	}
}

func TestCategoryAttributeFlow(t *testing.T) {
	s := setupServer(t)
	tok := signup(t, s)

	w := doJSON(t, s, http.MethodPost, "/categorie", tok, map[string]any{
		"name": "Vêtements", "type": "mode", "isActive": true,
		"attributes": []map[string]any{{"name": "Couleur", "valueType": "text", "required": true}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category %v: %s", w.Code, w.Body)
	}

	w = doJSON(t, s, http.MethodPost, "/categorie/1/attribut", tok, map[string]any{"name": "Taille", "valueType": "text"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add attribute %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPost, "/categorie/1/attribut", tok, map[string]any{"name": "couleur", "valueType": "text"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate attribute %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPut, "/categorie/1/attribut/2", tok, map[string]any{"required": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update attribute %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPut, "/categorie/1", tok, map[string]any{"isActive": false})
	if w.Code != http.StatusOK {
		t.Fatalf("update category %v", w.Code)
	}
	w = doJSON(t, s, http.MethodDelete, "/categorie/1/attribut/1", tok, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove attribute %v", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/categorie/1", "", nil)
	got := decode[struct {
		IsActive   bool `json:"isActive"`
		Attributes []struct {
			Name     string `json:"name"`
			Required bool   `json:"required"`
		} `json:"attributes"`
	}](t, w)
	if got.IsActive || len(got.Attributes) != 1 || got.Attributes[0].Name != "Taille" || !got.Attributes[0].Required {
		t.Fatalf("category after edits %+v", got)
	}

	w = doJSON(t, s, http.MethodPut, "/categorie/abc", tok, map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id code %v", w.Code)
	}
}

func TestOfferAndPromotionFlow(t *testing.T) {
	s := setupServer(t)
	tok := signup(t, s)
	w := doJSON(t, s, http.MethodPost, "/produits", tok, map[string]any{"name": "Clavier", "initialPrice": "80"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product %v", w.Code)
	}

	exp := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	w = doJSON(t, s, http.MethodPost, "/offres", tok, map[string]any{"productId": 99, "offerPrice": "70", "expirationDate": exp})
	if w.Code != http.StatusNotFound {
		t.Fatalf("offer on unknown product %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPost, "/offres", tok, map[string]any{"productId": 1, "offerPrice": "70", "stock": 3, "expirationDate": exp})
	if w.Code != http.StatusCreated {
		t.Fatalf("create offer %v: %s", w.Code, w.Body)
	}
	w = doJSON(t, s, http.MethodPatch, "/offres/1", tok, map[string]any{"stock": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("patch offer %v", w.Code)
	}
	for _, path := range []string{"/api/offres", "/offres"} {
		w = doJSON(t, s, http.MethodGet, path, "", nil)
		if list := decode[[]map[string]any](t, w); len(list) != 1 || list[0]["stock"] != float64(1) {
			t.Fatalf("%s: %v", path, list)
		}
	}

	start := time.Now().UTC().Format(time.RFC3339)
	w = doJSON(t, s, http.MethodPost, "/promotions", tok, map[string]any{"productId": 1, "percentage": "120", "startDate": start, "endDate": exp})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("promotion over 100%% %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPost, "/promotions", tok, map[string]any{"productId": 1, "percentage": "20", "startDate": start, "endDate": exp})
	if w.Code != http.StatusCreated {
		t.Fatalf("create promotion %v: %s", w.Code, w.Body)
	}
	w = doJSON(t, s, http.MethodDelete, "/promotions/1", tok, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete promotion %v", w.Code)
	}
	w = doJSON(t, s, http.MethodDelete, "/offres/1", tok, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete offer %v", w.Code)
	}
}
