package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

func codes(list ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := list[i%len(list)]
		i++
		return code, nil
	}
}

func TestRoomRegistryReservesCodesAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	first := NewRoomRegistryWithCodes(newClient(mr), time.Hour, nil, codes("AAAAAA"))
	second := NewRoomRegistryWithCodes(newClient(mr), time.Hour, nil, codes("AAAAAA", "BBBBBB"))

	a, err := first.Create(ctx, "u1", domain.Profile{DisplayName: "One"}, domain.RoomConfig{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := second.Create(ctx, "u2", domain.Profile{DisplayName: "Two"}, domain.RoomConfig{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Code() != "AAAAAA" || b.Code() != "BBBBBB" {
		t.Fatalf("expected second instance to skip the reserved code, got %s and %s", a.Code(), b.Code())
	}

	owner, err := mr.Get("battle:room:AAAAAA")
	if err != nil || owner != first.instance {
		t.Fatalf("expected reservation for the first instance, got %q (%v)", owner, err)
	}
	if ttl := mr.TTL("battle:room:AAAAAA"); ttl != time.Hour {
		t.Fatalf("expected reservation ttl of 1h, got %s", ttl)
	}
}

func TestRoomRegistryFailsWhenEveryCodeIsTaken(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("battle:room:CCCCCC", "someone"); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	registry := NewRoomRegistryWithCodes(newClient(mr), time.Hour, nil, codes("CCCCCC"))
	if _, err := registry.Create(context.Background(), "u1", domain.Profile{}, domain.RoomConfig{}); err == nil {
		t.Fatalf("expected code exhaustion error")
	}
}

func TestRemoveIfAbandonedReleasesReservation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	registry := NewRoomRegistryWithCodes(newClient(mr), time.Hour, nil, codes("DDDDDD"))
	if _, err := registry.Create(context.Background(), "u1", domain.Profile{}, domain.RoomConfig{}); err != nil {
		t.Fatalf("create: %v", err)
	}

	registry.RemoveIfAbandoned("DDDDDD")
	if !mr.Exists("battle:room:DDDDDD") {
		t.Fatalf("occupied room must keep its reservation")
	}
	if _, ok := registry.Get("dddddd"); !ok {
		t.Fatalf("expected room to be found")
	}
	if len(registry.Rooms()) != 1 {
		t.Fatalf("expected one room")
	}
}

func TestLeavingLastPlayerReleasesReservation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	registry := NewRoomRegistryWithCodes(newClient(mr), time.Hour, nil, codes("EEEEEE"))
	service := app.NewBattleService(registry, nil, nil, nil)

	view, err := service.CreateRoom(ctx, "u1", domain.Profile{DisplayName: "One"}, domain.RoomConfig{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := service.Leave(ctx, view.Code, "u1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if mr.Exists("battle:room:EEEEEE") {
		t.Fatalf("expected reservation released")
	}
	if _, ok := registry.Get("EEEEEE"); ok {
		t.Fatalf("expected room removed")
	}

	// The freed code can be handed out again.
	if _, err := registry.Create(ctx, "u2", domain.Profile{}, domain.RoomConfig{}); err != nil {
		t.Fatalf("create after release: %v", err)
	}
}

func TestCancelReleasesReservation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	registry := NewRoomRegistryWithCodes(newClient(mr), time.Hour, nil, codes("FFFFFF"))
	service := app.NewBattleService(registry, nil, nil, nil)

	view, err := service.CreateRoom(ctx, "u1", domain.Profile{DisplayName: "One"}, domain.RoomConfig{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Join(ctx, view.Code, "u2", domain.Profile{DisplayName: "Two"}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Cancel(ctx, view.Code, "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if mr.Exists("battle:room:FFFFFF") {
		t.Fatalf("expected cancelled room to release its reservation")
	}
}

func TestTerminalRoomDoesNotOverwriteForeignReservation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	registry := NewRoomRegistryWithCodes(newClient(mr), time.Hour, nil, codes("GGGGGG", "GGGGGG", "HHHHHH"))
	service := app.NewBattleService(registry, nil, nil, nil)

	view, err := service.CreateRoom(ctx, "u1", domain.Profile{}, domain.RoomConfig{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Join(ctx, view.Code, "u2", domain.Profile{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Cancel(ctx, view.Code, "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Another instance picks the freed code up.
	if err := mr.Set("battle:room:GGGGGG", "other"); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	room, err := registry.Create(ctx, "u3", domain.Profile{}, domain.RoomConfig{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.Code() != "HHHHHH" {
		t.Fatalf("expected the foreign reservation to be skipped, got %s", room.Code())
	}
	if owner, _ := mr.Get("battle:room:GGGGGG"); owner != "other" {
		t.Fatalf("expected foreign reservation kept, got %q", owner)
	}

	// Releasing a code we no longer own leaves the other lease alone.
	registry.Refresh(ctx, "GGGGGG")
	if owner, _ := mr.Get("battle:room:GGGGGG"); owner != "other" {
		t.Fatalf("expected foreign reservation kept after refresh, got %q", owner)
	}
}

func TestMutationRenewsReservation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	registry := NewRoomRegistryWithCodes(newClient(mr), time.Hour, nil, codes("JJJJJJ"))
	service := app.NewBattleService(registry, nil, nil, nil)

	view, err := service.CreateRoom(ctx, "u1", domain.Profile{}, domain.RoomConfig{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(30 * time.Minute)
	if ttl := mr.TTL("battle:room:JJJJJJ"); ttl != 30*time.Minute {
		t.Fatalf("expected 30m left, got %s", ttl)
	}

	if _, err := service.Join(ctx, view.Code, "u2", domain.Profile{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if ttl := mr.TTL("battle:room:JJJJJJ"); ttl != time.Hour {
		t.Fatalf("expected lease renewed to 1h, got %s", ttl)
	}
}
