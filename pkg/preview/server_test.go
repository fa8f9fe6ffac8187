package preview

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, password string) *httptest.Server {
	t.Helper()
	_, srv := startTestServer(t, password)
	return srv
}

func startTestServer(t *testing.T, password string) (*Server, *httptest.Server) {
	t.Helper()
	opts := DefaultOptions()
	opts.Width, opts.Height, opts.FPS = 4, 2, 50
	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			t.Fatal(err)
		}
		opts.PasswordHash = hash
		opts.Secret = testSecret
	}
	server := New(opts)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(server.Close)
	return server, srv
}

func post(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func compileProgram(t *testing.T, srv *httptest.Server, token, src, mode string) programInfo {
	t.Helper()
	resp := post(t, srv.URL+"/api/programs", token, compileRequest{Source: src, Mode: mode})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		t.Fatalf("compile status wrong. got=%d", resp.StatusCode)
	}
	var info programInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	return info
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "hunter2") || VerifyPassword(hash, "hunter3") {
		t.Fatalf("password verification wrong")
	}
}

func TestTokenHelpers(t *testing.T) {
	token, err := SignToken("preview", testSecret, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := VerifyToken(token, testSecret)
	if err != nil || sub != "preview" {
		t.Fatalf("verify wrong. sub=%q, err=%v", sub, err)
	}
	if _, err := VerifyToken(token, "other"); err == nil {
		t.Fatalf("token verified with the wrong secret")
	}
	expired, err := SignToken("preview", testSecret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyToken(expired, testSecret); err == nil {
		t.Fatalf("expired token verified")
	}
}

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t, "hunter2")

	resp := post(t, srv.URL+"/api/programs", "", compileRequest{Source: "1.0", Mode: "expr"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 without a token, got=%d", resp.StatusCode)
	}

	resp = post(t, srv.URL+"/api/login", "", loginRequest{Password: "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 for a bad password, got=%d", resp.StatusCode)
	}

	resp = post(t, srv.URL+"/api/login", "", loginRequest{Password: "hunter2"})
	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if login.Token == "" {
		t.Fatalf("no token issued")
	}

	info := compileProgram(t, srv, login.Token, "1.0 + 1.0", "expr")
	if info.Returns != "float" {
		t.Fatalf("wrong return type. got=%q", info.Returns)
	}
}

func TestCompile(t *testing.T) {
	srv := newTestServer(t, "")
	src := "float v = xNorm * 2.0; return vec3(v, v, v);"
	first := compileProgram(t, srv, "", src, "")
	if first.ID != NewProgramID("script", src) {
		t.Fatalf("wrong id. got=%s", first.ID)
	}
	if first.Returns != "vec3" || first.Functions != 1 || first.Opcodes == 0 {
		t.Fatalf("wrong info. got=%+v", first)
	}
	if !strings.Contains(first.Disasm, "Return") {
		t.Fatalf("disassembly missing. got=%q", first.Disasm)
	}

	resp, err := http.Get(srv.URL + "/api/programs/" + string(first.ID))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lookup status wrong. got=%d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/programs/unknown")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got=%d", resp.StatusCode)
	}
}

func TestCompileFailure(t *testing.T) {
	srv := newTestServer(t, "")
	resp := post(t, srv.URL+"/api/programs", "", compileRequest{Source: "vec2(1, 2) + vec3(1, 2, 3)", Mode: "expr"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got=%d", resp.StatusCode)
	}
	var failure compileFailure
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
		t.Fatal(err)
	}
	if failure.Stage != "type error" || failure.Line != 1 || !strings.Contains(failure.Detail, "^") {
		t.Fatalf("wrong failure. got=%+v", failure)
	}
}

func TestFrame(t *testing.T) {
	srv := newTestServer(t, "")
	info := compileProgram(t, srv, "", "xNorm > 0.5 ? vec3(1.0, 0.0, 0.0) : vec3(0.0, 0.0, 1.0)", "expr")

	resp, err := http.Get(srv.URL + "/api/programs/" + string(info.ID) + "/frame.png?t=0.5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("frame status wrong. got=%d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("wrong size. got=%v", b)
	}
	r, _, bl, _ := img.At(0, 0).RGBA()
	if r != 0 || bl == 0 {
		t.Errorf("left pixel should be blue")
	}
	r, _, bl, _ = img.At(3, 0).RGBA()
	if r == 0 || bl != 0 {
		t.Errorf("right pixel should be red")
	}
}

func TestStream(t *testing.T) {
	srv := newTestServer(t, "")
	info := compileProgram(t, srv, "", "timeNorm", "expr")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/programs/" + string(info.ID) + "/stream?w=3&h=2"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var hello streamHello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	if hello.Width != 3 || hello.Height != 2 || hello.Returns != "float" {
		t.Fatalf("wrong hello. got=%+v", hello)
	}
	for i := 0; i < 2; i++ {
		kind, frame, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if kind != websocket.BinaryMessage || len(frame) != 3*2*4 {
			t.Fatalf("wrong frame. kind=%d, len=%d", kind, len(frame))
		}
	}
}

func TestStreamEndsOnClose(t *testing.T) {
	server, srv := startTestServer(t, "")
	info := compileProgram(t, srv, "", "xNorm", "expr")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/programs/" + string(info.ID) + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var hello streamHello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	server.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; ; i++ {
		_, _, err := conn.ReadMessage()
		if err == nil {
			if i > 100 {
				t.Fatalf("stream still running after close")
			}
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Fatalf("expected a going-away close, got=%v", err)
		}
		break
	}
}

func TestLoginBodyLimit(t *testing.T) {
	srv := newTestServer(t, "hunter2")
	resp := post(t, srv.URL+"/api/login", "", loginRequest{Password: strings.Repeat("a", maxLoginBody)})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversized login body wrong status. want=%d, got=%d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCache(t *testing.T) {
	c := NewCache(2)
	a, b, d := NewProgramID("expr", "a"), NewProgramID("expr", "b"), NewProgramID("expr", "d")
	c.Put(a, nil)
	c.Put(b, nil)
	c.Get(a)
	c.Put(d, nil)
	if _, ok := c.Get(b); ok {
		t.Fatalf("least recently used entry kept")
	}
	if _, ok := c.Get(a); !ok {
		t.Fatalf("recently used entry evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("wrong len. want=2, got=%d", c.Len())
	}
	if NewProgramID("expr", "a") == NewProgramID("script", "a") {
		t.Fatalf("mode not part of the id")
	}
}
