package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uday-t-s/car-brand-sales/internal/config"
)

const carsCSV = `brand,price,mileage,fuel_type
Toyota,20000,1000,Petrol
Honda,15000,2000,Diesel
Toyota,22000,1500,Diesel
Ford,18000,3000,Petrol
Honda,16000,2500,Petrol
BMW,40000,500,Diesel
Kia,12000,800,Petrol
Audi,30000,1200,Diesel
Ford,19000,2200,Petrol
Kia,13000,900,Diesel
`

func testConfig() *config.Global {
	return &config.Global{
		ListenAddr:  "127.0.0.1:0",
		MaxUploadMB: 1,
		MaxSessions: 4,
		ChartWidth:  600,
		ChartHeight: 400,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig(), nil)
	require.NoError(t, err)
	return s
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// upload posts a file and returns the new session id.
func upload(t *testing.T, s *Server, filename, content string) string {
	t.Helper()
	rec := do(s, uploadRequest(t, filename, content))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	id := loc.Query().Get("session")
	require.NotEmpty(t, id)
	return id
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	return do(s, httptest.NewRequest(http.MethodGet, target, nil))
}

func TestIndexWithoutUploadShowsPlaceholder(t *testing.T) {
	s := newTestServer(t)
	rec := get(s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Upload data and select fields to generate charts.")
	assert.Contains(t, body, "Bar Chart")
	assert.Contains(t, body, "Pie Chart")
	assert.NotContains(t, body, "<img")
}

func TestUploadThenSelectColumns(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s, "cars.csv", carsCSV)
	assert.Equal(t, 1, s.store.Len())

	rec := get(s, "/?session="+id)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// price and mileage each lose their extremes: 10 -> 8 -> 6 rows.
	assert.Contains(t, body, "Uploaded: cars.csv | Cleaned Rows: 6")
	assert.Contains(t, body, `<option value="brand">brand</option>`)
	assert.Contains(t, body, `<option value="mileage">mileage</option>`)
	assert.Contains(t, body, "Upload data and select fields to generate charts.")

	// x options list categorical columns before numeric ones
	xs := body[strings.Index(body, `id="x-axis"`):strings.Index(body, `id="y-axis"`)]
	assert.Less(t, strings.Index(xs, "fuel_type"), strings.Index(xs, "price"))
	ys := body[strings.Index(body, `id="y-axis"`):]
	assert.NotContains(t, ys[:strings.Index(ys, "</select>")], `value="brand"`)
}

func TestIndexRendersChartLink(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s, "cars.csv", carsCSV)

	rec := get(s, "/?session="+id+"&kind=bar&x=brand&y=price")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<img src="/chart/`+id+"?")
	assert.Contains(t, body, `alt="price by brand"`)
	assert.NotContains(t, body, "select fields to generate charts")
}

func TestIndexShowsValidationReason(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s, "cars.csv", carsCSV)

	rec := get(s, "/?session="+id+"&kind=box&x=brand&y=fuel_type")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Upload data and select fields to generate charts.")
	assert.Contains(t, body, "invalid y")
	assert.NotContains(t, body, "<img")
}

func TestPieAndScatterControls(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s, "cars.csv", carsCSV)

	pie := get(s, "/?session="+id+"&kind=pie&x=fuel_type").Body.String()
	assert.Contains(t, pie, "Names:")
	assert.NotContains(t, pie, `id="y-axis"`)
	assert.Contains(t, pie, `alt="Distribution of fuel_type"`)

	sc := get(s, "/?session="+id+"&kind=scatter&x=mileage&y=price&color=brand").Body.String()
	assert.Contains(t, sc, `id="color"`)
	assert.Contains(t, sc, `alt="price vs mileage (colored by brand)"`)
}

func TestChartEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s, "cars.csv", carsCSV)

	rec := get(s, "/chart/"+id+"?kind=bar&x=brand&y=price")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = get(s, "/chart/"+id+"?kind=scatter&x=brand&y=price&format=png")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = get(s, "/chart/"+id+"?kind=bar&x=brand")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = get(s, "/chart/"+id+"?kind=bar&x=brand&y=price&format=gif")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(s, "/chart/nope?kind=bar&x=brand&y=price")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEverythingCleanedAway(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s, "cars.csv", "brand,price\nToyota,20000\nToyota,20000\nHonda,\nFord,999999\n")

	rec := get(s, "/?session="+id+"&kind=bar&x=brand&y=price")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Uploaded: cars.csv | Cleaned Rows: 0")
	assert.Contains(t, body, "Upload data and select fields to generate charts.")
	assert.NotContains(t, body, "<img")

	rec = get(s, "/chart/"+id+"?kind=bar&x=brand&y=price")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadRejections(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, uploadRequest(t, "notes.txt", "hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported file type")

	rec = do(s, uploadRequest(t, "dup.csv", "a,a\n1,2\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate column name")

	rec = do(s, uploadRequest(t, "empty.csv", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := "a\n" + strings.Repeat("1\n", 1<<20)
	rec = do(s, uploadRequest(t, "big.csv", big))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, s.store.Len())
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)
	rec := get(s, "/?session=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload expired")
}

func TestStoreEvictsOldest(t *testing.T) {
	st := NewStore(2)
	a := st.Put("a.csv", []byte("a"))
	b := st.Put("b.csv", []byte("b"))
	c := st.Put("c.csv", []byte("c"))

	_, ok := st.Get(a.ID)
	assert.False(t, ok)
	for _, u := range []*Upload{b, c} {
		got, ok := st.Get(u.ID)
		require.True(t, ok)
		assert.Equal(t, u.Filename, got.Filename)
	}
	assert.Equal(t, 2, st.Len())
	assert.NotEqual(t, b.ID, c.ID)
}

func TestStoreOrderStaysBounded(t *testing.T) {
	st := NewStore(2)
	var last []*Upload
	for i := 0; i < 100; i++ {
		last = append(last, st.Put(fmt.Sprintf("%d.csv", i), nil))
	}
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, []string{last[98].ID, last[99].ID}, st.order)
	assert.Equal(t, 3, cap(st.order))
}

func TestRecovererReturns500(t *testing.T) {
	s := newTestServer(t)
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", ln.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
