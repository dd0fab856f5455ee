package desk

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/switchboard/internal/archive"
	"github.com/zulandar/switchboard/internal/notify"
)

func TestResolveChat(t *testing.T) {
	td := newTestDesk(t)
	inq := td.addInquiry(t, "cust-1", "help")
	td.clock.Advance(6 * time.Minute)
	chat, err := td.Assign(inq.ID, "op-a", AssignNormal)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	td.SendMessage(chat.ID, "fixed it", SenderAgent, "")
	td.clock.Advance(12 * time.Minute)

	entry, err := td.ResolveChat(chat.ID, "fixed", "customer satisfied")
	if err != nil {
		t.Fatalf("ResolveChat: %v", err)
	}
	if entry == nil {
		t.Fatal("entry = nil, want archive entry")
	}
	if entry.ResponseTime != 6 {
		t.Errorf("ResponseTime = %d, want 6", entry.ResponseTime)
	}
	if entry.ResolutionTime != 12 {
		t.Errorf("ResolutionTime = %d, want 12", entry.ResolutionTime)
	}
	if entry.Satisfaction != nil {
		t.Errorf("Satisfaction = %v, want unset", *entry.Satisfaction)
	}
	if len(entry.Messages) != 2 {
		t.Errorf("archived messages = %d, want 2", len(entry.Messages))
	}

	history, err := td.History("cust-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Resolution != "fixed" || history[0].Summary != "customer satisfied" {
		t.Errorf("history = %+v", history)
	}

	if _, ok := td.Chat(chat.ID); ok {
		t.Error("chat still active after resolve")
	}
	if _, ok := td.Inquiry(chat.ID); ok {
		t.Error("inquiry still present after resolve")
	}
	if _, err := td.Messages(chat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Messages err = %v, want ErrNotFound", err)
	}
	op, _ := td.roster.Get("op-a")
	if op.TodayHandled != 1 {
		t.Errorf("TodayHandled = %d, want 1", op.TodayHandled)
	}
}

func TestResolveChat_MissingIsNoop(t *testing.T) {
	td := newTestDesk(t)
	entry, err := td.ResolveChat("inq-404", "fixed", "")
	if err != nil {
		t.Fatalf("ResolveChat: %v", err)
	}
	if entry != nil {
		t.Errorf("entry = %+v, want nil", entry)
	}
	if h, _ := td.History(""); len(h) != 0 {
		t.Errorf("history = %d, want 0", len(h))
	}
}

func TestResolveChat_Twice(t *testing.T) {
	td := newTestDesk(t)
	chat := td.assigned(t, "cust-1", "op-a")
	td.ResolveChat(chat.ID, "fixed", "")
	entry, err := td.ResolveChat(chat.ID, "fixed", "")
	if err != nil || entry != nil {
		t.Fatalf("second resolve = (%v, %v), want (nil, nil)", entry, err)
	}
	if h, _ := td.History("cust-1"); len(h) != 1 {
		t.Errorf("history = %d, want 1", len(h))
	}
}

func TestResolveChat_MovesSelection(t *testing.T) {
	td := newTestDesk(t)
	first := td.assigned(t, "cust-1", "op-a")
	second := td.assigned(t, "cust-2", "op-a")
	td.Select("op-a", first.ID)

	td.ResolveChat(first.ID, "fixed", "")
	if sel, _ := td.Selected("op-a"); sel != second.ID {
		t.Errorf("Selected = %q, want %q", sel, second.ID)
	}

	td.ResolveChat(second.ID, "fixed", "")
	if _, ok := td.Selected("op-a"); ok {
		t.Error("selection not cleared after last chat resolved")
	}
}

func TestResolveChat_ClearsPendingEscalation(t *testing.T) {
	td := newTestDesk(t)
	chat := td.assigned(t, "cust-1", "op-a")
	td.RequestEscalation("op-a", chat.ID, "op-b", "r")

	td.ResolveChat(chat.ID, "fixed", "")
	if _, ok := td.Pending(chat.ID); ok {
		t.Error("pending escalation survived resolve")
	}
	if n := len(td.Notifications("op-b")); n != 0 {
		t.Errorf("op-b notifications = %d, want 0", n)
	}
}

type failingArchive struct{ archive.Store }

func (failingArchive) Append(archive.Entry) error { return errors.New("disk full") }

func TestResolveChat_ArchiveFailureLeavesState(t *testing.T) {
	td := newTestDesk(t)
	td.archive = failingArchive{archive.NewMemory()}
	chat := td.assigned(t, "cust-1", "op-a")

	if _, err := td.ResolveChat(chat.ID, "fixed", ""); err == nil {
		t.Fatal("expected archive error")
	}
	if _, ok := td.Chat(chat.ID); !ok {
		t.Error("chat removed despite archive failure")
	}
	if op, _ := td.roster.Get("op-a"); op.TodayHandled != 0 {
		t.Errorf("TodayHandled = %d, want 0", op.TodayHandled)
	}
}

func TestRateSatisfaction(t *testing.T) {
	td := newTestDesk(t)
	chat := td.assigned(t, "cust-1", "op-a")
	entry, _ := td.ResolveChat(chat.ID, "fixed", "")

	if err := td.RateSatisfaction("cust-1", entry.ID, 9); !errors.Is(err, archive.ErrInvalidScore) {
		t.Errorf("err = %v, want ErrInvalidScore", err)
	}
	if err := td.RateSatisfaction("cust-1", entry.ID, 4); err != nil {
		t.Fatalf("RateSatisfaction: %v", err)
	}
	h, _ := td.History("cust-1")
	if h[0].Satisfaction == nil || *h[0].Satisfaction != 4 {
		t.Errorf("Satisfaction = %v, want 4", h[0].Satisfaction)
	}
}

func TestSendMessage(t *testing.T) {
	td := newTestDesk(t)
	chat := td.assigned(t, "cust-1", "op-a")

	msg, err := td.SendMessage(chat.ID, "on it", SenderAgent, "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.AgentID != "op-a" || msg.ID == "" {
		t.Errorf("message = %+v, want agent op-a and an id", msg)
	}

	tests := []struct {
		name    string
		chatID  string
		content string
		sender  SenderKind
		want    error
	}{
		{"missing chat", "inq-0", "x", SenderAgent, ErrNotFound},
		{"empty content", chat.ID, "  ", SenderAgent, ErrInvalid},
		{"bad sender", chat.ID, "x", SenderKind("bot"), ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := td.SendMessage(tt.chatID, tt.content, tt.sender, ""); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdateChatPriority_KeepsSLA(t *testing.T) {
	td := newTestDesk(t)
	chat := td.assigned(t, "cust-1", "op-a")

	got, err := td.UpdateChatPriority(chat.ID, PriorityUrgent)
	if err != nil {
		t.Fatalf("UpdateChatPriority: %v", err)
	}
	if got.Priority != PriorityUrgent {
		t.Errorf("Priority = %q, want urgent", got.Priority)
	}
	if !got.SLADeadline.Equal(chat.SLADeadline) {
		t.Errorf("SLADeadline moved from %v to %v", chat.SLADeadline, got.SLADeadline)
	}
	if _, err := td.UpdateChatPriority(chat.ID, Priority("p0")); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestUpdateChatStatus(t *testing.T) {
	td := newTestDesk(t)
	chat := td.assigned(t, "cust-1", "op-a")

	got, err := td.UpdateChatStatus(chat.ID, ChatHold)
	if err != nil {
		t.Fatalf("UpdateChatStatus: %v", err)
	}
	if got.Status != ChatHold {
		t.Errorf("Status = %q, want hold", got.Status)
	}
	if _, err := td.UpdateChatStatus("inq-0", ChatHold); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSweepSLA(t *testing.T) {
	td := newTestDesk(t)
	late := td.addInquiry(t, "cust-1", "a")
	td.clock.Advance(20 * time.Minute)
	fresh := td.addInquiry(t, "cust-2", "b")
	td.clock.Advance(11 * time.Minute)

	if n := td.SweepSLA(); n != 1 {
		t.Fatalf("SweepSLA = %d, want 1", n)
	}
	if n := td.SweepSLA(); n != 1 {
		t.Fatalf("second SweepSLA = %d, want 1", n)
	}
	var sla []notify.Notification
	for _, n := range td.board.All() {
		if n.Type == notify.KindSLA {
			sla = append(sla, n)
		}
	}
	if len(sla) != 1 || sla[0].ChatID != late.ID {
		t.Fatalf("sla notifications = %+v, want one for %s", sla, late.ID)
	}
	if len(td.sink.delivered()) != 1 {
		t.Errorf("sink deliveries = %d, want 1", len(td.sink.delivered()))
	}

	td.Assign(late.ID, "op-a", AssignNormal)
	if _, ok := td.board.Get("notify-sla-" + late.ID); ok {
		t.Error("sla notification kept after assignment")
	}
	if _, ok := td.board.Get("notify-sla-" + fresh.ID); ok {
		t.Error("sla notification raised for inquiry within its deadline")
	}
}
