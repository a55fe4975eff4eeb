package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestRedis_Lookup_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 3600, "test:")

	mock.ExpectHGet("test:hi", "Hello").SetVal("नमस्ते")

	val, ok := cache.Lookup("Hello", "hi")
	if !ok {
		t.Error("Expected cache hit")
	}
	if val != "नमस्ते" {
		t.Errorf("Expected 'नमस्ते', got %q", val)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Lookup_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 3600, "test:")

	mock.ExpectHGet("test:hi", "Hello").RedisNil()

	val, ok := cache.Lookup("Hello", "hi")
	if ok {
		t.Error("Expected cache miss")
	}
	if val != "" {
		t.Errorf("Expected empty string, got %q", val)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Lookup_ErrorIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 0, "test:")

	mock.ExpectHGet("test:hi", "Hello").SetErr(errors.New("connection reset"))

	if _, ok := cache.Lookup("Hello", "hi"); ok {
		t.Error("Expected a Redis error to be reported as a miss")
	}
}

func TestRedis_Lookup_English(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 0, "test:")

	// No expectations: English must never reach Redis
	val, ok := cache.Lookup("Hello", "en")
	if !ok || val != "Hello" {
		t.Errorf("Expected passthrough, got %q (ok=%v)", val, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Store(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 3600, "test:")

	mock.ExpectHSet("test:hi", "Hello", "नमस्ते").SetVal(1)
	mock.ExpectSAdd("test:langs", "hi").SetVal(1)
	mock.ExpectExpire("test:hi", 3600*time.Second).SetVal(true)

	if err := cache.Store("Hello", "hi", "नमस्ते"); err != nil {
		t.Errorf("Store failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Store_NoTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 0, "test:")

	mock.ExpectHSet("test:ta", "Hello", "வணக்கம்").SetVal(1)
	mock.ExpectSAdd("test:langs", "ta").SetVal(0)

	if err := cache.Store("Hello", "ta", "வணக்கம்"); err != nil {
		t.Errorf("Store failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Store_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 0, "test:")

	mock.ExpectHSet("test:hi", "Hello", "नमस्ते").SetErr(errors.New("READONLY"))

	if err := cache.Store("Hello", "hi", "नमस्ते"); err == nil {
		t.Error("Expected error from failed HSET")
	}
}

func TestRedis_DefaultKeyPrefix(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 3600, "")

	// Verify prefix is applied
	mock.ExpectHGet("pagetrans:kn", "Hello").SetVal("ನಮಸ್ಕಾರ")

	val, ok := cache.Lookup("Hello", "kn")
	if !ok || val != "ನಮಸ್ಕಾರ" {
		t.Errorf("Expected 'ನಮಸ್ಕಾರ', got %q (ok=%v)", val, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Stats(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 0, "test:")

	mock.ExpectSMembers("test:langs").SetVal([]string{"ta", "hi", "bn"})
	mock.ExpectHLen("test:bn").SetVal(0)
	mock.ExpectHLen("test:hi").SetVal(3)
	mock.ExpectHLen("test:ta").SetVal(2)

	stats, err := cache.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Languages != 2 || stats.Entries != 5 {
		t.Errorf("Expected 2 languages / 5 entries, got %+v", stats)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Clear(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 0, "test:")

	mock.ExpectSMembers("test:langs").SetVal([]string{"hi", "ta"})
	mock.ExpectDel("test:hi", "test:ta", "test:langs").SetVal(3)

	if err := cache.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Entries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 0, "test:")

	mock.ExpectSMembers("test:langs").SetVal([]string{"hi"})
	mock.ExpectHGetAll("test:hi").SetVal(map[string]string{
		"World": "विश्व",
		"Hello": "नमस्ते",
	})

	entries, err := cache.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0] != (Entry{Lang: "hi", Source: "Hello", Translated: "नमस्ते"}) {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	cache := NewRedisFromClient(db, 3600, "test:")

	mock.ExpectPing().SetVal("PONG")

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedis_Close(t *testing.T) {
	db, _ := redismock.NewClientMock()

	cache := NewRedisFromClient(db, 3600, "test:")

	if err := cache.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestNewRedis_InvalidURL(t *testing.T) {
	if _, err := NewRedis(RedisConfig{URL: "not-a-url"}); err == nil {
		t.Error("Expected error for invalid URL")
	}
}
