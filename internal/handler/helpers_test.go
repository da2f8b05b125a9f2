package handler_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msomdec/design-catalog/internal/handler"
	"github.com/msomdec/design-catalog/internal/media"
	"github.com/msomdec/design-catalog/internal/repository/sqlite"
	"github.com/msomdec/design-catalog/internal/service"
	"github.com/msomdec/design-catalog/internal/storage"
)

const (
	testJWTSecret     = "test-secret-for-handler-tests"
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "password123"
)

type testServer struct {
	*httptest.Server
	db       *sqlite.DB
	blobRoot string
	auth     *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLimit(t, 100)
}

func newTestServerWithLimit(t *testing.T, loginsPerMinute int) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	root := t.TempDir()
	blobs, err := storage.NewLocal(root)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	auth := service.NewAuthService(db.Admins(), testJWTSecret, 4)
	if _, err := auth.EnsureAdmin(ctx, testAdminEmail, "Admin", testAdminPassword); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	coordinator := service.NewCoordinator(db, media.NewManager(blobs, nil))
	designs := service.NewDesignService(db.Designs(), coordinator)
	counters := service.NewCounterService(db.Counters())

	limiter := service.NewPerMinute(loginsPerMinute)
	t.Cleanup(limiter.Close)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, designs, counters, blobs, limiter, handler.Options{MediaBaseURL: "/media"})

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, db: db, blobRoot: root, auth: auth}
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	token, err := s.auth.Login(context.Background(), testAdminEmail, testAdminPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return token
}

// do sends a request with an optional bearer token and returns the
// response with its body already read.
func (s *testServer) do(t *testing.T, method, path, token, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	return s.do(t, method, path, token, "application/json", body)
}

// blobCount counts stored blobs.
func (s *testServer) blobCount(t *testing.T) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(s.blobRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk blobs: %v", err)
	}
	return n
}

// form builds a multipart save request.
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	t   *testing.T
}

// newForm starts a form with payload as its JSON part; a nil payload
// leaves the part out.
func newForm(t *testing.T, payload any) *form {
	t.Helper()
	f := &form{t: t}
	f.w = multipart.NewWriter(&f.buf)
	if payload == nil {
		return f
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := f.w.WriteField("payload", string(b)); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return f
}

func (f *form) field(name, value string) *form {
	if err := f.w.WriteField(name, value); err != nil {
		f.t.Fatalf("write field %s: %v", name, err)
	}
	return f
}

func (f *form) file(name, filename string, data []byte) *form {
	part, err := f.w.CreateFormFile(name, filename)
	if err != nil {
		f.t.Fatalf("create part %s: %v", name, err)
	}
	if _, err := part.Write(data); err != nil {
		f.t.Fatalf("write part %s: %v", name, err)
	}
	return f
}

func (f *form) send(s *testServer, method, path, token string) (*http.Response, []byte) {
	f.t.Helper()
	if err := f.w.Close(); err != nil {
		f.t.Fatalf("close form: %v", err)
	}
	return s.do(f.t, method, path, token, f.w.FormDataContentType(), &f.buf)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// headerOnlyPNG declares a w*h grayscale PNG without any pixel data.
func headerOnlyPNG(w, h uint32) []byte {
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr[:]...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

// Response shapes, decoded loosely.

type imageBody struct {
	ID        int64  `json:"id"`
	ImagePath string `json:"image_path"`
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	SortOrder int    `json:"sort_order"`
}

type fileBody struct {
	ID       int64  `json:"id"`
	FileType string `json:"file_type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

type roomBody struct {
	ID       int64  `json:"id"`
	RoomType string `json:"room_type"`
	Name     string `json:"name"`
}

type floorBody struct {
	ID            int64       `json:"id"`
	FloorNumber   int         `json:"floor_number"`
	Name          string      `json:"name"`
	CoverImageURL string      `json:"cover_image_url"`
	Rooms         []roomBody  `json:"rooms"`
	Images        []imageBody `json:"images"`
	Files         []fileBody  `json:"files"`
}

type designBody struct {
	ID            int64       `json:"id"`
	Kind          string      `json:"kind"`
	Name          string      `json:"name"`
	Tags          []string    `json:"tags"`
	IsActive      bool        `json:"is_active"`
	CoverImage    string      `json:"cover_image"`
	CoverImageURL string      `json:"cover_image_url"`
	Floors        []floorBody `json:"floors"`
	Images        []imageBody `json:"images"`
	Files         []fileBody  `json:"files"`
}

type saveBody struct {
	Design  designBody `json:"design"`
	Skipped []struct {
		Scope string `json:"scope"`
		ID    int64  `json:"id"`
	} `json:"skipped"`
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}
