package archive

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openArchiveTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.ArchiveEntry{}, &models.ArchiveMessage{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	g, err := NewGormStore(openArchiveTestDB(t))
	if err != nil {
		t.Fatalf("NewGormStore: %v", err)
	}
	return map[string]Store{"memory": NewMemory(), "gorm": g}
}

func sampleEntry(id string, at time.Time) Entry {
	return Entry{
		ID:         id,
		CustomerID: "cust-1",
		ChatID:     "inq-" + id,
		OperatorID: "op-a",
		Category:   "billing",
		Subject:    "double charge",
		Priority:   "high",
		Messages: []Message{
			{ID: id + "-m1", Sender: "customer", Content: "help", Timestamp: at},
			{ID: id + "-m2", Sender: "agent", Content: "refunded", AgentID: "op-a", Timestamp: at.Add(time.Minute)},
		},
		Resolution:     "refund",
		Summary:        "customer satisfied",
		ResponseTime:   3,
		ResolutionTime: 9,
		CreatedAt:      at.Add(-3 * time.Minute),
		StartedAt:      at,
		ArchivedAt:     at.Add(9 * time.Minute),
	}
}

func TestStore_AppendAndList(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Append(sampleEntry("e1", at)); err != nil {
				t.Fatalf("Append: %v", err)
			}
			if err := s.Append(sampleEntry("e2", at.Add(time.Hour))); err != nil {
				t.Fatalf("Append: %v", err)
			}

			got, err := s.ForCustomer("cust-1")
			if err != nil {
				t.Fatalf("ForCustomer: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("len = %d, want 2", len(got))
			}
			if got[0].ID != "e1" || got[1].ID != "e2" {
				t.Errorf("order = %s, %s; want e1, e2", got[0].ID, got[1].ID)
			}
			e := got[0]
			if e.ResolutionTime != 9 || e.ResponseTime != 3 || e.Resolution != "refund" {
				t.Errorf("entry = %+v", e)
			}
			if e.Satisfaction != nil {
				t.Errorf("Satisfaction = %d, want unset", *e.Satisfaction)
			}
			if len(e.Messages) != 2 || e.Messages[1].Content != "refunded" || e.Messages[1].AgentID != "op-a" {
				t.Errorf("Messages = %+v", e.Messages)
			}

			other, _ := s.ForCustomer("cust-2")
			if len(other) != 0 {
				t.Errorf("cust-2 entries = %d, want 0", len(other))
			}
		})
	}
}

func TestStore_RateSatisfaction(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Append(sampleEntry("e1", at))

			if err := s.RateSatisfaction("cust-1", "e1", 0); !errors.Is(err, ErrInvalidScore) {
				t.Errorf("err = %v, want ErrInvalidScore", err)
			}
			if err := s.RateSatisfaction("cust-1", "nope", 3); !errors.Is(err, ErrNotFound) {
				t.Errorf("err = %v, want ErrNotFound", err)
			}
			if err := s.RateSatisfaction("cust-1", "e1", 5); err != nil {
				t.Fatalf("RateSatisfaction: %v", err)
			}
			got, _ := s.ForCustomer("cust-1")
			if got[0].Satisfaction == nil || *got[0].Satisfaction != 5 {
				t.Errorf("Satisfaction = %v, want 5", got[0].Satisfaction)
			}
		})
	}
}

func TestStore_RequiresCustomer(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Append(Entry{ID: "x"}); err == nil {
				t.Error("expected error for missing customer id")
			}
		})
	}
}

func TestValidScore(t *testing.T) {
	for score, want := range map[int]bool{0: false, 1: true, 3: true, 5: true, 6: false, -1: false} {
		if got := ValidScore(score); got != want {
			t.Errorf("ValidScore(%d) = %v, want %v", score, got, want)
		}
	}
}
