package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"pgstay/config"
	"pgstay/database"
	"pgstay/middleware"
	"pgstay/models"
	"pgstay/utils"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// fakeImages records CDN calls. Every second Destroy fails when failDestroy is set.
type fakeImages struct {
	mu          sync.Mutex
	uploads     int
	destroyed   []string
	failDestroy bool
}

func (f *fakeImages) Upload(_ context.Context, filename string, r io.Reader) (models.Photo, error) {
	if _, err := io.ReadAll(r); err != nil {
		return models.Photo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	id := fmt.Sprintf("pgstay/test-%d", f.uploads)
	return models.Photo{URL: "https://res.cloudinary.com/demo/image/upload/v1/" + id + ".png", PublicID: id}, nil
}

func (f *fakeImages) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	if f.failDestroy && len(f.destroyed)%2 == 0 {
		return errors.New("cdn unavailable")
	}
	return nil
}

func (f *fakeImages) destroyedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.destroyed...)
}

type recordingMailer struct {
	mu       sync.Mutex
	subjects []string
}

func (m *recordingMailer) Send(_ context.Context, _, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	tokens   *middleware.TokenIssuer
	images   *fakeImages
	mailer   *recordingMailer
	notifier *utils.Notifier
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:           "test",
		JWTAccessSecret:  "test-access",
		JWTRefreshSecret: "test-refresh",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
		SaltRound:        bcrypt.MinCost,
		CorsOrigin:       "http://localhost:5173",
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestServer(t *testing.T, opts ...func(*Deps)) *testServer {
	t.Helper()
	cfg := testConfig()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s := &testServer{
		db:     newTestDB(t),
		tokens: middleware.NewTokenIssuer(cfg),
		images: &fakeImages{},
		mailer: &recordingMailer{},
	}
	s.notifier = utils.NewNotifier(s.mailer, log)

	deps := Deps{
		Config:   cfg,
		DB:       s.db,
		Log:      log,
		Tokens:   s.tokens,
		Images:   s.images,
		Notifier: s.notifier,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	s.app = NewApp(deps)
	t.Cleanup(s.notifier.Wait)
	return s
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, map[string]interface{}) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

// register creates an account and returns its access token and id.
func (s *testServer) register(t *testing.T, name, role string) (string, uint) {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name":     name,
		"email":    uuid.NewString() + "@pgstay.test",
		"password": "secret123",
		"role":     role,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	user := body["user"].(map[string]interface{})
	return body["accessToken"].(string), uint(user["id"].(float64))
}

func (s *testServer) createListing(t *testing.T, token string, payload fiber.Map) uint {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/listings", token, payload)
	require.Equal(t, fiber.StatusCreated, status, body)
	return uint(body["listing"].(map[string]interface{})["id"].(float64))
}

func (s *testServer) getListing(t *testing.T, id uint) (int, map[string]interface{}) {
	t.Helper()
	status, body := s.do(t, http.MethodGet, fmt.Sprintf("/api/listings/%d", id), "", nil)
	if status != fiber.StatusOK {
		return status, nil
	}
	return status, body["listing"].(map[string]interface{})
}

func sunrisePG() fiber.Map {
	return fiber.Map{"title": "Sunrise PG", "rent": 8000, "address": "123 Main St", "city": "Pune"}
}

func multipartBody(t *testing.T, field string, fields map[string]string, files ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, name := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(pngBytes)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterLoginRefresh(t *testing.T) {
	s := newTestServer(t)
	email := "asha@pgstay.test"

	status, body := s.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name": "Asha", "email": email, "password": "secret123", "role": "owner",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.NotContains(t, body["user"], "password")

	status, body = s.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name": "Asha Again", "email": email, "password": "secret123",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Email is already registered!", body["message"])

	status, _ = s.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{"email":"`+email+`","password":"secret123"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var login struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID   uint   `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()

	claims, err := s.tokens.ParseAccess(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, claims.Role)
	assert.Equal(t, login.User.ID, claims.UserID)

	var refreshCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "refreshToken" {
			refreshCookie = cookie
		}
	}
	require.NotNil(t, refreshCookie)
	assert.True(t, refreshCookie.HttpOnly)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refreshCookie.Value})
	status, body = s.send(t, req, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["accessToken"])

	status, _ = s.do(t, http.MethodPost, "/api/auth/refresh", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name": "A", "email": "not-an-email", "password": "123",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed!", body["message"])

	var fields []string
	for _, e := range body["errors"].([]interface{}) {
		fields = append(fields, e.(map[string]interface{})["field"].(string))
	}
	assert.Equal(t, []string{"email", "name", "password"}, fields)
}

func TestProfileAndRoleSwitch(t *testing.T) {
	s := newTestServer(t)
	token, id := s.register(t, "Ravi", "")

	status, body := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.RoleStudent, body["user"].(map[string]interface{})["role"])

	status, body = s.do(t, http.MethodPatch, "/api/auth/me", token, fiber.Map{"phone": "9876543210"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "9876543210", body["user"].(map[string]interface{})["phone"])

	status, body = s.do(t, http.MethodPatch, "/api/auth/role", token, fiber.Map{"role": "owner"})
	require.Equal(t, fiber.StatusOK, status)
	claims, err := s.tokens.ParseAccess(body["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, claims.Role)
	assert.Equal(t, id, claims.UserID)

	status, _ = s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

// loginCookie logs in and returns the refresh cookie set by the response.
func (s *testServer) loginCookie(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	raw, err := json.Marshal(fiber.Map{"email": email, "password": password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "refreshToken" {
			return &http.Cookie{Name: cookie.Name, Value: cookie.Value}
		}
	}
	t.Fatal("login did not set a refresh cookie")
	return nil
}

func TestLogoutRevokesRedisSession(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := newTestServer(t, func(d *Deps) {
		d.Sessions = middleware.NewRedisSessionStore(client)
	})

	status, _ := s.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"name": "Meera", "email": "meera@pgstay.test", "password": "secret123",
	})
	require.Equal(t, fiber.StatusCreated, status)
	cookie := s.loginCookie(t, "meera@pgstay.test", "secret123")

	// one session per issued refresh token
	assert.Len(t, mr.Keys(), 2)

	refresh := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
		req.AddCookie(cookie)
		status, _ := s.send(t, req, "")
		return status
	}
	require.Equal(t, fiber.StatusOK, refresh())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	status, body := s.send(t, req, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Logged out", body["message"])
	assert.Len(t, mr.Keys(), 1)

	assert.Equal(t, fiber.StatusUnauthorized, refresh())
}

func TestListingOwnership(t *testing.T) {
	s := newTestServer(t)
	ownerA, idA := s.register(t, "Owner A", "owner")
	ownerB, _ := s.register(t, "Owner B", "owner")
	student, _ := s.register(t, "Student", "student")

	status, body := s.do(t, http.MethodPost, "/api/listings", ownerA, sunrisePG())
	require.Equal(t, fiber.StatusCreated, status, body)
	listing := body["listing"].(map[string]interface{})
	assert.Equal(t, float64(idA), listing["ownerId"])
	assert.Equal(t, "any", listing["gender"])
	id := uint(listing["id"].(float64))

	status, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/listings/%d", id), ownerB, fiber.Map{"title": "Taken Over"})
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/listings/%d", id), ownerB, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	_, stored := s.getListing(t, id)
	assert.Equal(t, "Sunrise PG", stored["title"])

	status, _ = s.do(t, http.MethodPost, "/api/listings", student, sunrisePG())
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, http.MethodPatch, fmt.Sprintf("/api/listings/%d", id), ownerA, fiber.Map{"rent": 8500})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 8500.0, body["listing"].(map[string]interface{})["rent"])

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/listings/%d", id), ownerA, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, "/api/owners/listings", ownerA, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["items"], 1)
}

func TestListingCreateValidation(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")

	status, body := s.do(t, http.MethodPost, "/api/listings", owner, fiber.Map{"title": "No Rent PG", "city": "Pune", "lat": 18.5})
	require.Equal(t, fiber.StatusBadRequest, status)
	var fields []string
	for _, e := range body["errors"].([]interface{}) {
		fields = append(fields, e.(map[string]interface{})["field"].(string))
	}
	assert.Equal(t, []string{"address", "lat", "rent"}, fields)
}

func TestListingMultipartPhotos(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")

	buf, contentType := multipartBody(t, "photos", map[string]string{
		"title": "Green Nest", "rent": "7000", "address": "4 Lake Rd", "city": "Pune",
	}, "a.png", "b.png")
	req := httptest.NewRequest(http.MethodPost, "/api/listings", buf)
	req.Header.Set("Content-Type", contentType)
	status, body := s.send(t, req, owner)
	require.Equal(t, fiber.StatusCreated, status, body)

	listing := body["listing"].(map[string]interface{})
	assert.Len(t, listing["photos"], 2)
	id := uint(listing["id"].(float64))

	// dropping a photo removes it from the CDN
	keep := listing["photos"].([]interface{})[1]
	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/listings/%d", id), owner, fiber.Map{"photos": []interface{}{keep}})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"pgstay/test-1"}, s.images.destroyedIDs())
}

func TestDeleteListingDestroysEveryPhoto(t *testing.T) {
	s := newTestServer(t)
	s.images.failDestroy = true
	owner, _ := s.register(t, "Owner", "owner")
	student, _ := s.register(t, "Student", "student")

	payload := sunrisePG()
	payload["photos"] = []fiber.Map{
		{"url": "https://res.cloudinary.com/demo/image/upload/v1/pgstay/one.jpg", "publicId": "pgstay/one"},
		{"url": "https://res.cloudinary.com/demo/image/upload/v1700000000/pgstay/two.jpg"},
		{"url": "https://res.cloudinary.com/demo/image/upload/v1/pgstay/three.jpg", "publicId": "pgstay/three"},
	}
	id := s.createListing(t, owner, payload)

	status, _ := s.do(t, http.MethodPost, "/api/reviews", student, fiber.Map{"listingId": id, "rating": 5})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/listings/%d/favorite", id), student, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body := s.do(t, http.MethodDelete, fmt.Sprintf("/api/listings/%d", id), owner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Listing deleted", body["message"])

	assert.Equal(t, []string{"pgstay/one", "pgstay/two", "pgstay/three"}, s.images.destroyedIDs())

	status, _ = s.getListing(t, id)
	assert.Equal(t, fiber.StatusNotFound, status)

	var reviews int64
	require.NoError(t, s.db.Model(&models.Review{}).Where("listing_id = ?", id).Count(&reviews).Error)
	assert.Zero(t, reviews)
}

func TestListingSearch(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")

	s.createListing(t, owner, fiber.Map{"title": "Sunrise PG", "rent": 8000, "address": "1 Main St", "city": "Pune",
		"college": "COEP", "gender": "male", "amenities": []string{"WiFi", "Laundry"}})
	s.createListing(t, owner, fiber.Map{"title": "Lotus Girls Hostel", "rent": 6000, "address": "2 Hill Rd", "city": "Pune",
		"gender": "female", "amenities": []string{"wifi"}})
	s.createListing(t, owner, fiber.Map{"title": "Open House", "rent": 5000, "address": "3 Park Ave", "city": "Pune",
		"amenities": []string{"parking"}})
	s.createListing(t, owner, fiber.Map{"title": "Harbour Rooms", "rent": 9000, "address": "9 Marine Dr", "city": "Mumbai"})

	titles := func(body map[string]interface{}) []string {
		var out []string
		for _, item := range body["items"].([]interface{}) {
			out = append(out, item.(map[string]interface{})["title"].(string))
		}
		return out
	}

	tests := []struct {
		name  string
		query string
		want  []string
		total float64
	}{
		{"city filter sorted by price", "?city=pune&sort=price_asc", []string{"Open House", "Lotus Girls Hostel", "Sunrise PG"}, 3},
		{"male includes any", "?gender=male&sort=price_asc", []string{"Open House", "Sunrise PG", "Harbour Rooms"}, 3},
		{"amenities all required", "?amenities=wifi,laundry", []string{"Sunrise PG"}, 1},
		{"single amenity", "?amenities=WIFI&sort=price_desc", []string{"Sunrise PG", "Lotus Girls Hostel"}, 2},
		{"price range", "?minPrice=5500&maxPrice=8500&sort=price_desc", []string{"Sunrise PG", "Lotus Girls Hostel"}, 2},
		{"free text", "?q=coep", []string{"Sunrise PG"}, 1},
		{"college", "?college=coe", []string{"Sunrise PG"}, 1},
		{"pagination", "?sort=price_asc&page=2&limit=2", []string{"Sunrise PG", "Harbour Rooms"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, "/api/listings"+tt.query, "", nil)
			require.Equal(t, fiber.StatusOK, status, body)
			assert.Equal(t, tt.want, titles(body))
			assert.Equal(t, tt.total, body["total"])
		})
	}

	status, _ := s.do(t, http.MethodGet, "/api/listings?minPrice=9000&maxPrice=100", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestNearby(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")

	s.createListing(t, owner, fiber.Map{"title": "Close PG", "rent": 7000, "address": "a", "city": "Pune", "lat": 18.5210, "lng": 73.8570})
	s.createListing(t, owner, fiber.Map{"title": "Near PG", "rent": 7000, "address": "b", "city": "Pune", "lat": 18.5400, "lng": 73.8600})
	s.createListing(t, owner, fiber.Map{"title": "Mumbai PG", "rent": 7000, "address": "c", "city": "Mumbai", "lat": 19.0760, "lng": 72.8777})
	s.createListing(t, owner, fiber.Map{"title": "No Geo PG", "rent": 7000, "address": "d", "city": "Pune"})

	status, body := s.do(t, http.MethodGet, "/api/listings/nearby?lat=18.5204&lng=73.8567&radiusKm=5", "", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "Close PG", items[0].(map[string]interface{})["title"])
	assert.Equal(t, "Near PG", items[1].(map[string]interface{})["title"])
	assert.Less(t, items[0].(map[string]interface{})["distanceKm"].(float64), 1.0)

	status, _ = s.do(t, http.MethodGet, "/api/listings/nearby?lat=18.5", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestNearbyPaging(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")

	s.createListing(t, owner, fiber.Map{"title": "First PG", "rent": 7000, "address": "a", "city": "Pune", "lat": 18.5210, "lng": 73.8570})
	s.createListing(t, owner, fiber.Map{"title": "Second PG", "rent": 7000, "address": "b", "city": "Pune", "lat": 18.5300, "lng": 73.8580})
	s.createListing(t, owner, fiber.Map{"title": "Third PG", "rent": 7000, "address": "c", "city": "Pune", "lat": 18.5400, "lng": 73.8600})

	const base = "/api/listings/nearby?lat=18.5204&lng=73.8567"

	status, body := s.do(t, http.MethodGet, base+"&page=2&limit=2", "", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, 3.0, body["total"])
	assert.Equal(t, 2.0, body["page"])
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Third PG", items[0].(map[string]interface{})["title"])

	status, body = s.do(t, http.MethodGet, base+"&page=100000&limit=4", "", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, 3.0, body["total"])
	assert.Empty(t, body["items"])

	status, _ = s.do(t, http.MethodGet, base+"&page=4611686018427387904&limit=4", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, base+"&radiusKm=51", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, base+"&radiusKm=50", "", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, 3.0, body["total"])
}

func TestListingSearchMatchesWildcardsLiterally(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")

	s.createListing(t, owner, sunrisePG())
	s.createListing(t, owner, fiber.Map{"title": "Room_7 Residency", "rent": 6000, "address": "7 Lane", "city": "Pune", "college": "MIT 100% Campus"})

	tests := []struct {
		query string
		total float64
	}{
		{"?q=_", 1},
		{"?q=e_p", 0},
		{"?q=%25", 1},
		{"?college=%25", 1},
		{"?college=t_1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, "/api/listings"+tt.query, "", nil)
			require.Equal(t, fiber.StatusOK, status, body)
			assert.Equal(t, tt.total, body["total"])
		})
	}

	status, _ := s.do(t, http.MethodGet, "/api/listings?page=4611686018427387904&limit=4", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUpdateListingKeepsRatingAggregate(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")
	_, studentID := s.register(t, "Student", "student")
	id := s.createListing(t, owner, sunrisePG())

	// A review lands after the owner's edit loaded the listing but before it is written.
	fired := false
	err := s.db.Callback().Update().Before("gorm:update").Register("test:review_during_edit", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "listings" {
			return
		}
		fired = true
		inner := tx.Session(&gorm.Session{NewDB: true})
		if err := inner.Create(&models.Review{ListingID: id, UserID: studentID, Rating: 5}).Error; err != nil {
			tx.AddError(err)
			return
		}
		err := inner.Model(&models.Listing{}).Where("id = ?", id).
			Updates(map[string]interface{}{"avg_rating": 5.0, "rating_count": 1}).Error
		if err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)

	status, body := s.do(t, http.MethodPatch, fmt.Sprintf("/api/listings/%d", id), owner, fiber.Map{"title": "Sunrise PG Deluxe"})
	require.Equal(t, fiber.StatusOK, status, body)
	require.True(t, fired)

	_, stored := s.getListing(t, id)
	assert.Equal(t, "Sunrise PG Deluxe", stored["title"])
	assert.Equal(t, 5.0, stored["avgRating"])
	assert.Equal(t, 1.0, stored["ratingCount"])
}

func TestFavorites(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")
	student, _ := s.register(t, "Student", "student")
	id := s.createListing(t, owner, sunrisePG())
	path := fmt.Sprintf("/api/listings/%d/favorite", id)

	status, body := s.do(t, http.MethodPost, path, student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["favorited"])
	assert.Equal(t, []interface{}{float64(id)}, body["favorites"])

	status, body = s.do(t, http.MethodGet, "/api/listings/favorites", student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["items"], 1)

	status, body = s.do(t, http.MethodPost, path, student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["favorited"])
	assert.Empty(t, body["favorites"])

	status, _ = s.do(t, http.MethodPost, "/api/listings/9999/favorite", student, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestReviewAggregate(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")
	first, _ := s.register(t, "First", "student")
	second, _ := s.register(t, "Second", "student")
	id := s.createListing(t, owner, sunrisePG())

	status, body := s.do(t, http.MethodPost, "/api/reviews", first, fiber.Map{"listingId": id, "rating": 4, "comment": "Clean rooms"})
	require.Equal(t, fiber.StatusCreated, status, body)
	firstReview := uint(body["review"].(map[string]interface{})["id"].(float64))

	status, body = s.do(t, http.MethodPost, "/api/reviews", second, fiber.Map{"listingId": id, "rating": 2})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, 3.0, body["avgRating"])
	assert.Equal(t, 2.0, body["ratingCount"])

	_, listing := s.getListing(t, id)
	assert.Equal(t, 3.0, listing["avgRating"])
	assert.Equal(t, 2.0, listing["ratingCount"])

	status, _ = s.do(t, http.MethodPost, "/api/reviews", first, fiber.Map{"listingId": id, "rating": 5})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, http.MethodPost, "/api/reviews", first, fiber.Map{"listingId": id, "rating": 6})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, fmt.Sprintf("/api/reviews/listing/%d?limit=1", id), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2.0, body["total"])
	assert.Len(t, body["items"], 1)

	// only the reviewer may delete
	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/reviews/%d", firstReview), second, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = s.do(t, http.MethodDelete, fmt.Sprintf("/api/reviews/%d", firstReview), first, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2.0, body["avgRating"])
	assert.Equal(t, 1.0, body["ratingCount"])
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")
	otherOwner, _ := s.register(t, "Other", "owner")
	student, studentID := s.register(t, "Student", "student")
	id := s.createListing(t, owner, sunrisePG())

	past := time.Now().AddDate(0, 0, -2).Format("2006-01-02")
	future := time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	tests := []struct {
		name    string
		payload fiber.Map
		field   string
	}{
		{"past start date", fiber.Map{"listingId": id, "startDate": past, "durationMonths": 3}, "startDate"},
		{"too long", fiber.Map{"listingId": id, "startDate": future, "durationMonths": 25}, "durationMonths"},
		{"missing duration", fiber.Map{"listingId": id, "startDate": future}, "durationMonths"},
		{"missing start", fiber.Map{"listingId": id, "durationMonths": 2}, "startDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodPost, "/api/bookings", student, tt.payload)
			require.Equal(t, fiber.StatusBadRequest, status)
			errs := body["errors"].([]interface{})
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.(map[string]interface{})["field"].(string))
			}
			assert.Contains(t, fields, tt.field)
		})
	}

	status, body := s.do(t, http.MethodPost, "/api/bookings", student, fiber.Map{"listingId": 9999, "visitOnly": true})
	assert.Equal(t, fiber.StatusNotFound, status, body)

	status, body = s.do(t, http.MethodPost, "/api/bookings", student, fiber.Map{"listingId": id, "startDate": future, "durationMonths": 6})
	require.Equal(t, fiber.StatusCreated, status, body)
	booking := body["booking"].(map[string]interface{})
	assert.Equal(t, "requested", booking["status"])
	assert.Equal(t, float64(studentID), booking["userId"])
	bookingID := uint(booking["id"].(float64))

	status, body = s.do(t, http.MethodPost, "/api/bookings", student, fiber.Map{"listingId": id, "visitOnly": true})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, body = s.do(t, http.MethodGet, "/api/bookings/me", student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["items"], 2)

	status, body = s.do(t, http.MethodGet, "/api/bookings/owner", owner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["items"], 2)

	status, body = s.do(t, http.MethodGet, "/api/bookings/owner", otherOwner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, body["items"])

	path := fmt.Sprintf("/api/bookings/%d", bookingID)
	status, _ = s.do(t, http.MethodPatch, path, otherOwner, fiber.Map{"status": "approved"})
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = s.do(t, http.MethodPatch, path, student, fiber.Map{"status": "approved"})
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = s.do(t, http.MethodPatch, path, owner, fiber.Map{"status": "confirmed"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPatch, path, owner, fiber.Map{"status": "approved"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "approved", body["booking"].(map[string]interface{})["status"])

	status, body = s.do(t, http.MethodGet, "/api/bookings/owner?status=approved", owner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["items"], 1)

	s.notifier.Wait()
	s.mailer.mu.Lock()
	defer s.mailer.mu.Unlock()
	assert.ElementsMatch(t, []string{
		"New booking request: Sunrise PG",
		"New visit request: Sunrise PG",
		"Your request for Sunrise PG is approved",
	}, s.mailer.subjects)
}

func TestInquiryRules(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")
	student, _ := s.register(t, "Student", "student")
	id := s.createListing(t, owner, sunrisePG())

	status, _ := s.do(t, http.MethodPost, "/api/inquiries", owner, fiber.Map{"listingId": id, "message": "Is this mine?"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/inquiries", student, fiber.Map{"listingId": id, "message": "Hi"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := s.do(t, http.MethodPost, "/api/inquiries", student, fiber.Map{"listingId": id, "message": "Is a room free in June?", "contact": "9876543210"})
	require.Equal(t, fiber.StatusCreated, status, body)
	inquiryID := uint(body["inquiry"].(map[string]interface{})["id"].(float64))

	status, _ = s.do(t, http.MethodPost, "/api/inquiries", student, fiber.Map{"listingId": id, "message": "Any update on this?"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = s.do(t, http.MethodGet, "/api/inquiries/owner?status=open", owner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["items"], 1)

	status, body = s.do(t, http.MethodPatch, fmt.Sprintf("/api/inquiries/%d", inquiryID), owner, fiber.Map{"status": "closed"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "closed", body["inquiry"].(map[string]interface{})["status"])

	// a closed inquiry no longer blocks a new one
	status, _ = s.do(t, http.MethodPost, "/api/inquiries", student, fiber.Map{"listingId": id, "message": "Asking again about June"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, body = s.do(t, http.MethodGet, "/api/inquiries/me", student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["items"], 2)
}

func TestDashboardSummary(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")
	otherOwner, _ := s.register(t, "Other", "owner")
	student, _ := s.register(t, "Student", "student")

	first := s.createListing(t, owner, sunrisePG())
	s.createListing(t, owner, fiber.Map{"title": "Second PG", "rent": 6000, "address": "2 Hill Rd", "city": "Pune"})
	foreign := s.createListing(t, otherOwner, fiber.Map{"title": "Elsewhere", "rent": 9999, "address": "x", "city": "Goa"})

	future := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	status, body := s.do(t, http.MethodPost, "/api/bookings", student, fiber.Map{"listingId": first, "startDate": future, "durationMonths": 1})
	require.Equal(t, fiber.StatusCreated, status)
	bookingID := uint(body["booking"].(map[string]interface{})["id"].(float64))
	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/api/bookings/%d", bookingID), owner, fiber.Map{"status": "approved"})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/api/bookings", student, fiber.Map{"listingId": first, "visitOnly": true})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/api/bookings", student, fiber.Map{"listingId": foreign, "visitOnly": true})
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = s.do(t, http.MethodPost, "/api/inquiries", student, fiber.Map{"listingId": first, "message": "Is parking available?"})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/api/reviews", student, fiber.Map{"listingId": first, "rating": 5})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/api/reviews", student, fiber.Map{"listingId": foreign, "rating": 1})
	require.Equal(t, fiber.StatusCreated, status)

	status, body = s.do(t, http.MethodGet, "/api/owners/dashboard/summary", owner, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, map[string]interface{}{
		"totalListings":     2.0,
		"totalInquiries":    1.0,
		"openInquiries":     1.0,
		"totalBookings":     2.0,
		"approvedBookings":  1.0,
		"pendingBookings":   1.0,
		"bookingsThisMonth": 2.0,
		"approxRevenue":     8000.0,
		"avgRating":         5.0,
		"ratingCount":       1.0,
	}, body)

	status, _ = s.do(t, http.MethodGet, "/api/owners/dashboard/summary", student, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestUploadImages(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register(t, "Owner", "owner")

	buf, contentType := multipartBody(t, "images", nil, "a.png", "b.webp.png")
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/images", buf)
	req.Header.Set("Content-Type", contentType)
	status, body := s.send(t, req, owner)
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Len(t, body["urls"], 2)
	assert.Len(t, body["photos"], 2)

	buf, contentType = multipartBody(t, "images", nil)
	req = httptest.NewRequest(http.MethodPost, "/api/uploads/images", buf)
	req.Header.Set("Content-Type", contentType)
	status, _ = s.send(t, req, owner)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUploadImagesWithoutCDN(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		d.Images = utils.NewCloudinaryStore(d.Config)
	})
	owner, _ := s.register(t, "Owner", "owner")

	buf, contentType := multipartBody(t, "images", nil, "a.png")
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/images", buf)
	req.Header.Set("Content-Type", contentType)
	status, body := s.send(t, req, owner)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Image uploads are not configured", body["message"])
}
