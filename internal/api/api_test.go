package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchboard/internal/desk"
	"github.com/zulandar/switchboard/internal/roster"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type testServer struct {
	router *gin.Engine
	desk   *desk.Desk
	roster *roster.Memory
	clock  *fakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir, err := roster.NewMemory(
		roster.Operator{ID: "op-a", Name: "Alice", Status: roster.StatusAvailable, MaxConcurrent: 2},
		roster.Operator{ID: "op-b", Name: "Bob", Status: roster.StatusAvailable, MaxConcurrent: 1},
		roster.Operator{ID: "op-c", Name: "Carol", Status: roster.StatusBreak, MaxConcurrent: 2},
	)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	d, err := desk.New(desk.Options{Roster: dir, Clock: clock})
	if err != nil {
		t.Fatalf("desk.New: %v", err)
	}
	router, err := NewRouter(d, dir, nil)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testServer{router: router, desk: d, roster: dir, clock: clock}
}

// do sends a request and decodes the JSON response into a map.
func (s *testServer) do(t *testing.T, method, path, operator string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if operator != "" {
		req.Header.Set(OperatorHeader, operator)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, out
}

func (s *testServer) addInquiry(t *testing.T, customerID string) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/v1/inquiries", "", map[string]any{
		"customer": map[string]any{"id": customerID, "name": "Customer " + customerID},
		"message":  "My invoice is wrong",
		"category": "billing",
	})
	if code != http.StatusCreated {
		t.Fatalf("add inquiry: status = %d, body = %v", code, body)
	}
	s.clock.Advance(time.Second)
	return body["id"].(string)
}

func TestNewRouter_RequiresDeps(t *testing.T) {
	if _, err := NewRouter(nil, nil, nil); err == nil {
		t.Fatal("expected error for nil desk")
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/healthz", "", nil)
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", code, body)
	}
}

func TestAddInquiry_AndQueue(t *testing.T) {
	s := newTestServer(t)
	id := s.addInquiry(t, "cust-1")

	code, body := s.do(t, http.MethodGet, "/api/v1/inquiries", "", nil)
	if code != http.StatusOK {
		t.Fatalf("queue status = %d", code)
	}
	list := body["inquiries"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["id"] != id {
		t.Errorf("queue = %v", list)
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/inquiries/"+id, "", nil)
	if code != http.StatusOK || body["status"] != "waiting" {
		t.Errorf("inquiry = %d %v", code, body)
	}
}

func TestAddInquiry_Invalid(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodPost, "/api/v1/inquiries", "", map[string]any{"message": "hi"})
	if code != http.StatusBadRequest || body["kind"] != "invalid" {
		t.Errorf("status = %d, body = %v; want 400 invalid", code, body)
	}
}

func TestAssign_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	id := s.addInquiry(t, "cust-1")

	code, body := s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-c"})
	if code != http.StatusConflict || body["kind"] != "unavailable" || body["status"] != "break" {
		t.Errorf("unavailable: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-a"})
	if code != http.StatusOK || body["assignedTo"] != "op-a" || body["lockedBy"] != "op-a" {
		t.Fatalf("assign: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-b"})
	if code != http.StatusConflict || body["kind"] != "lock_conflict" || body["holderName"] != "Alice" {
		t.Errorf("lock conflict: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/inquiries/missing/assign", "", map[string]any{"operatorId": "op-a"})
	if code != http.StatusNotFound || body["resource"] != "inquiry" {
		t.Errorf("not found: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-b", "force": true})
	if code != http.StatusOK || body["assignedTo"] != "op-b" {
		t.Errorf("force: %d %v", code, body)
	}
}

func TestClaim(t *testing.T) {
	s := newTestServer(t)
	id := s.addInquiry(t, "cust-1")

	code, _ := s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/claim", "", nil)
	if code != http.StatusBadRequest {
		t.Errorf("claim without operator = %d, want 400", code)
	}

	code, body := s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/claim", "op-b", nil)
	if code != http.StatusOK || body["assignedTo"] != "op-b" {
		t.Fatalf("claim: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodGet, "/api/v1/operators/op-b/selection", "", nil)
	if code != http.StatusOK || body["chatId"] != id {
		t.Errorf("selection = %d %v", code, body)
	}

	// Bob is now full.
	other := s.addInquiry(t, "cust-2")
	code, body = s.do(t, http.MethodPost, "/api/v1/inquiries/"+other+"/claim", "op-b", nil)
	if code != http.StatusConflict || body["kind"] != "capacity_exceeded" || body["max"] != float64(1) {
		t.Errorf("claim at capacity: %d %v", code, body)
	}
}

func TestEscalation_AcceptFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.addInquiry(t, "cust-1")
	s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-a"})

	code, body := s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/escalation", "op-a", map[string]any{
		"targetOperatorId": "op-b",
		"reason":           "needs technical help",
	})
	if code != http.StatusAccepted || body["success"] != true || body["pending"] != true {
		t.Fatalf("request: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/operators/op-b/notifications", "", nil)
	if code != http.StatusOK || len(body["notifications"].([]any)) != 1 {
		t.Errorf("target notifications = %v", body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/escalation/accept", "op-a", nil)
	if code != http.StatusNotFound {
		t.Errorf("accept by non-target = %d %v, want 404", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/escalation/accept", "op-b", nil)
	if code != http.StatusOK || body["assignedTo"] != "op-b" {
		t.Fatalf("accept: %d %v", code, body)
	}

	_, body = s.do(t, http.MethodGet, "/api/v1/chats/"+id+"/messages", "", nil)
	msgs := body["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	if last["sender"] != "system" || !strings.Contains(last["content"].(string), "Bob") {
		t.Errorf("last message = %v", last)
	}
}

func TestEscalation_Reject(t *testing.T) {
	s := newTestServer(t)
	id := s.addInquiry(t, "cust-1")
	s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-a"})
	s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/escalation", "", map[string]any{"targetOperatorId": "op-b", "reason": "r1"})

	code, body := s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/escalation/reject", "", map[string]any{"reason": "too busy"})
	if code != http.StatusOK {
		t.Fatalf("reject: %d %v", code, body)
	}
	n := body["notification"].(map[string]any)
	if n["operatorId"] != "op-a" || !strings.Contains(n["message"].(string), "too busy") {
		t.Errorf("notification = %v", n)
	}

	_, body = s.do(t, http.MethodGet, "/api/v1/chats/"+id, "", nil)
	if body["assignedTo"] != "op-a" {
		t.Errorf("assignedTo = %v, want op-a", body["assignedTo"])
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/escalation/reject", "", nil)
	if code != http.StatusNotFound {
		t.Errorf("second reject = %d, want 404", code)
	}
}

func TestEscalation_TargetAtCapacity(t *testing.T) {
	s := newTestServer(t)
	first := s.addInquiry(t, "cust-1")
	second := s.addInquiry(t, "cust-2")
	s.do(t, http.MethodPost, "/api/v1/inquiries/"+first+"/assign", "", map[string]any{"operatorId": "op-b"})
	s.do(t, http.MethodPost, "/api/v1/inquiries/"+second+"/assign", "", map[string]any{"operatorId": "op-a"})

	code, body := s.do(t, http.MethodPost, "/api/v1/chats/"+second+"/escalation", "op-a", map[string]any{"targetOperatorId": "op-b"})
	if code != http.StatusConflict || body["kind"] != "capacity_exceeded" {
		t.Errorf("escalate to full operator: %d %v", code, body)
	}
}

func TestResolve_AndArchive(t *testing.T) {
	s := newTestServer(t)
	id := s.addInquiry(t, "cust-1")
	s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-a"})
	code, _ := s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/messages", "op-a", map[string]any{"content": "Refund issued"})
	if code != http.StatusCreated {
		t.Fatalf("send message = %d", code)
	}
	s.clock.Advance(5 * time.Minute)

	code, body := s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/resolve", "", map[string]any{"resolution": "refund", "summary": "done"})
	if code != http.StatusOK || body["archived"] != true {
		t.Fatalf("resolve: %d %v", code, body)
	}
	entry := body["entry"].(map[string]any)
	entryID := entry["id"].(string)
	if entry["resolutionTime"] != float64(5) {
		t.Errorf("resolutionTime = %v, want 5", entry["resolutionTime"])
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/resolve", "", map[string]any{})
	if code != http.StatusOK || body["archived"] != false {
		t.Errorf("second resolve: %d %v", code, body)
	}

	_, body = s.do(t, http.MethodGet, "/api/v1/customers/cust-1/archive", "", nil)
	entries := body["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if msgs := entries[0].(map[string]any)["messages"].([]any); len(msgs) != 2 {
		t.Errorf("archived messages = %d, want 2", len(msgs))
	}

	path := "/api/v1/customers/cust-1/archive/" + entryID + "/satisfaction"
	if code, _ := s.do(t, http.MethodPut, path, "", map[string]any{"score": 9}); code != http.StatusBadRequest {
		t.Errorf("score 9 = %d, want 400", code)
	}
	if code, _ := s.do(t, http.MethodPut, "/api/v1/customers/cust-1/archive/nope/satisfaction", "", map[string]any{"score": 4}); code != http.StatusNotFound {
		t.Errorf("unknown entry = %d, want 404", code)
	}
	if code, _ := s.do(t, http.MethodPut, path, "", map[string]any{"score": 4}); code != http.StatusOK {
		t.Errorf("score 4 = %d, want 200", code)
	}

	op, _ := s.roster.Get("op-a")
	if op.TodayHandled != 1 {
		t.Errorf("TodayHandled = %d, want 1", op.TodayHandled)
	}
}

func TestResolve_MissingChatWithoutBody(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/v1/chats/missing/resolve", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %v)", code, body)
	}
	if body["archived"] != false {
		t.Errorf("archived = %v, want false", body["archived"])
	}
}

func TestOperatorStatus(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPut, "/api/v1/operators/op-a/status", "", map[string]any{"status": "offline"})
	if code != http.StatusOK {
		t.Fatalf("set status = %d", code)
	}
	_, body := s.do(t, http.MethodGet, "/api/v1/operators/op-a/capacity", "", nil)
	if body["canTakeMore"] != false {
		t.Errorf("capacity after offline = %v", body)
	}

	if code, _ := s.do(t, http.MethodPut, "/api/v1/operators/op-a/status", "", map[string]any{"status": "lunch"}); code != http.StatusBadRequest {
		t.Errorf("invalid status = %d, want 400", code)
	}
	if code, _ := s.do(t, http.MethodPut, "/api/v1/operators/op-z/status", "", map[string]any{"status": "busy"}); code != http.StatusNotFound {
		t.Errorf("unknown operator = %d, want 404", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/v1/operators/op-z/capacity", "", nil); code != http.StatusNotFound {
		t.Errorf("unknown capacity = %d, want 404", code)
	}

	_, body = s.do(t, http.MethodGet, "/api/v1/operators", "", nil)
	if len(body["operators"].([]any)) != 3 {
		t.Errorf("operators = %v", body["operators"])
	}
}

func TestChatUpdates(t *testing.T) {
	s := newTestServer(t)
	id := s.addInquiry(t, "cust-1")
	s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-a"})

	code, body := s.do(t, http.MethodPut, "/api/v1/chats/"+id+"/status", "", map[string]any{"status": "hold"})
	if code != http.StatusOK || body["chatStatus"] != "hold" {
		t.Errorf("status: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPut, "/api/v1/chats/"+id+"/priority", "", map[string]any{"priority": "urgent"})
	if code != http.StatusOK || body["priority"] != "urgent" {
		t.Errorf("priority: %d %v", code, body)
	}
	if code, _ := s.do(t, http.MethodPut, "/api/v1/chats/"+id+"/priority", "", map[string]any{"priority": "asap"}); code != http.StatusBadRequest {
		t.Errorf("bad priority = %d, want 400", code)
	}
	if code, _ := s.do(t, http.MethodPut, "/api/v1/chats/missing/status", "", map[string]any{"status": "hold"}); code != http.StatusNotFound {
		t.Errorf("missing chat = %d, want 404", code)
	}

	_, body = s.do(t, http.MethodGet, "/api/v1/chats?operator=op-a", "", nil)
	if len(body["chats"].([]any)) != 1 {
		t.Errorf("chats = %v", body["chats"])
	}
}

func TestDismissNotification(t *testing.T) {
	s := newTestServer(t)
	id := s.addInquiry(t, "cust-1")
	s.do(t, http.MethodPost, "/api/v1/inquiries/"+id+"/assign", "", map[string]any{"operatorId": "op-a"})
	s.do(t, http.MethodPost, "/api/v1/chats/"+id+"/escalation", "op-a", map[string]any{"targetOperatorId": "op-b"})

	path := "/api/v1/notifications/notify-escalate-" + id
	if code, _ := s.do(t, http.MethodDelete, path, "", nil); code != http.StatusNoContent {
		t.Errorf("dismiss = %d, want 204", code)
	}
	if code, _ := s.do(t, http.MethodDelete, path, "", nil); code != http.StatusNotFound {
		t.Errorf("second dismiss = %d, want 404", code)
	}
}
