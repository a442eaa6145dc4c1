//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"quickstay/internal/adapters/http_server"
	redisad "quickstay/internal/adapters/redis"
	"quickstay/internal/adapters/stripe"
	"quickstay/internal/app"
	"quickstay/internal/domain"
	mysqlrepo "quickstay/internal/storage/mysql"
)

const jwtSecret = "e2e-secret"

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=quickstay",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "quickstay")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

type e2eUploader struct{}

func (e2eUploader) Upload(_ context.Context, _ io.Reader, name string) (string, error) {
	return "https://img.e2e/" + name, nil
}

type e2eMailer struct{ sent int }

func (m *e2eMailer) SendBookingConfirmation(context.Context, domain.BookingMail) error {
	m.sent++
	return nil
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"name":  "E2E User",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func postJSON(t *testing.T, base, path, token string, body any, extra map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, base+path, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	return doReq(t, req)
}

func getJSON(t *testing.T, base, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, base+path, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doReq(t, req)
}

func doReq(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer res.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res, out
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func TestHTTP_EndToEnd_BookingFlow(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	// Checkout stand-in; the client only needs a session id and url back.
	checkout := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		id := "cs_" + r.PostFormValue("metadata[bookingId]")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":  id,
			"url": "https://checkout.e2e/" + id,
		})
	}))
	defer checkout.Close()
	payments, err := stripe.New(checkout.URL, "sk_test_e2e", 10)
	if err != nil {
		t.Fatalf("stripe client: %v", err)
	}

	mailer := &e2eMailer{}
	catalog := app.NewCatalogService(repo, cache, e2eUploader{}, time.Minute)
	bookings := app.NewBookingService(repo, repo, cache, mailer, payments, time.Minute, "usd")

	srv := httpserver.New()
	httpserver.MountHandlers(srv, catalog, bookings, jwtSecret)
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	ownerTok := signToken(t, "owner-1", domain.RoleHotelOwner)
	guestTok := signToken(t, "guest-1", "user")

	// Owner registers their hotel.
	res, body := postJSON(t, ts.URL, "/api/hotels", ownerTok,
		map[string]any{"name": "Harbour View", "address": "12 Quay St", "contact": "555-0101"}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register hotel: %d %v", res.StatusCode, body)
	}

	// Owner adds a room (multipart with one image).
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	_ = mw.WriteField("roomType", "Double")
	_ = mw.WriteField("pricePerNight", "12000")
	_ = mw.WriteField("amenities", `["wifi","breakfast"]`)
	fw, _ := mw.CreateFormFile("images", "front.jpg")
	_, _ = fw.Write([]byte("jpg-bytes"))
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/rooms", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ownerTok)
	res, body = doReq(t, req)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create room: %d %v", res.StatusCode, body)
	}
	roomID := body["room"].(map[string]any)["id"].(string)

	// The public browse page shows it.
	res, body = getJSON(t, ts.URL, "/api/rooms", "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list rooms: %d %v", res.StatusCode, body)
	}
	if rooms := body["rooms"].([]any); len(rooms) != 1 {
		t.Fatalf("rooms = %v, want 1", rooms)
	}

	// The guest books two nights.
	payload := map[string]any{
		"room":         roomID,
		"checkInDate":  futureDate(7),
		"checkOutDate": futureDate(9),
		"guests":       2,
	}
	res, body = postJSON(t, ts.URL, "/api/bookings/book", guestTok, payload, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("book: %d %v", res.StatusCode, body)
	}
	booking := body["booking"].(map[string]any)
	bookingID := booking["id"].(string)
	if booking["totalPrice"] != float64(24000) {
		t.Fatalf("totalPrice = %v, want 24000", booking["totalPrice"])
	}
	if mailer.sent != 1 {
		t.Fatalf("confirmation mails = %d, want 1", mailer.sent)
	}

	// Overlapping dates are rejected.
	res, body = postJSON(t, ts.URL, "/api/bookings/book", signToken(t, "guest-2", "user"), payload, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("overlap: %d %v", res.StatusCode, body)
	}

	// The guest sees their booking.
	res, body = getJSON(t, ts.URL, "/api/bookings/user", guestTok)
	if res.StatusCode != http.StatusOK || len(body["bookings"].([]any)) != 1 {
		t.Fatalf("user bookings: %d %v", res.StatusCode, body)
	}

	// The owner's dashboard counts it.
	res, body = getJSON(t, ts.URL, "/api/bookings/owner-dashboard", ownerTok)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: %d %v", res.StatusCode, body)
	}
	data := body["dashboardData"].(map[string]any)
	if data["totalBookings"] != float64(1) || data["totalRevenue"] != float64(24000) {
		t.Fatalf("dashboard data: %v", data)
	}

	// And checkout hands back the hosted payment URL.
	res, body = postJSON(t, ts.URL, "/api/bookings/stripe-payment", guestTok,
		map[string]any{"bookingId": bookingID}, map[string]string{"Origin": "https://quickstay.e2e"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("payment: %d %v", res.StatusCode, body)
	}
	if body["url"] != "https://checkout.e2e/cs_"+bookingID {
		t.Fatalf("payment url = %v", body["url"])
	}
}
