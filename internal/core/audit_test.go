package core

import (
	"context"
	"testing"
	"time"
)

func TestAuditLog_RingAndFilters(t *testing.T) {
	log := NewAuditLog(3)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	log.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	for _, a := range []AuditAction{ActionCreate, ActionUpdate, ActionDelete, ActionImport} {
		log.Record(ctx, AuditEntry{Action: a})
	}

	all := log.Entries(AuditFilter{})
	var got []AuditAction
	for _, e := range all {
		got = append(got, e.Action)
	}
	want := []AuditAction{ActionImport, ActionDelete, ActionUpdate}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got[i], want[i])
		}
	}
	if all[0].IPAddress != "10.0.0.7" || all[0].Severity != SeverityCritical || all[0].ID == "" {
		t.Errorf("newest entry = %+v", all[0])
	}

	tests := []struct {
		name string
		f    AuditFilter
		want int
	}{
		{"by action", AuditFilter{Action: ActionDelete}, 1},
		{"since", AuditFilter{Since: base.Add(3 * time.Minute)}, 2},
		{"limit", AuditFilter{Limit: 1}, 1},
		{"no match", AuditFilter{Action: ActionReset}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := len(log.Entries(tt.f)); n != tt.want {
				t.Errorf("got %d entries, want %d", n, tt.want)
			}
		})
	}
}

func TestAuditLog_Disabled(t *testing.T) {
	log := NewAuditLog(-1)
	e := log.Record(context.Background(), AuditEntry{Action: ActionReset})
	if e.Severity != SeverityCritical {
		t.Errorf("severity = %s", e.Severity)
	}
	if n := len(log.Entries(AuditFilter{})); n != 0 {
		t.Errorf("disabled log kept %d entries", n)
	}
}
