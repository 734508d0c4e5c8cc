package audit

import (
	"testing"
	"time"

	"github.com/meridian-commerce/core/internal/shared/types"
)

func TestNewAuditEntry(t *testing.T) {
	resourceID := types.NewID()

	entry := NewAuditEntry(
		ActorTypeSystem,
		"worker-1",
		"product.published",
		"product",
		&resourceID,
		map[string]any{"status": "published"},
	)

	if entry.ID.IsZero() {
		t.Error("expected non-zero ID")
	}
	if entry.ActorType != ActorTypeSystem {
		t.Errorf("expected ActorTypeSystem, got %s", entry.ActorType)
	}
	if entry.Action != "product.published" {
		t.Errorf("expected action product.published, got %s", entry.Action)
	}
	if entry.Hash == "" {
		t.Error("expected non-empty hash")
	}
	if entry.PrevHash != "" {
		t.Error("expected empty prev_hash before the repository links it")
	}
}

func TestHashChainIntegrity(t *testing.T) {
	entries := make([]*AuditEntry, 5)

	prevHash := ""
	for i := 0; i < 5; i++ {
		resourceID := types.NewID()
		entries[i] = NewAuditEntry(
			ActorTypeSystem,
			"",
			"product.created",
			"product",
			&resourceID,
			map[string]any{"index": i},
		)
		entries[i].PrevHash = prevHash
		entries[i].Hash = entries[i].calculateHash()
		prevHash = entries[i].Hash
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].PrevHash != entries[i-1].Hash {
			t.Errorf("chain broken at entry %d: expected prev_hash %s, got %s",
				i, entries[i-1].Hash, entries[i].PrevHash)
		}
	}
}

func TestHashChainTamperDetection(t *testing.T) {
	resourceID := types.NewID()

	entry := NewAuditEntry(
		ActorTypeSystem,
		"",
		"product.created",
		"product",
		&resourceID,
		map[string]any{"title": "Original"},
	)

	originalHash := entry.Hash

	if !entry.VerifyHash() {
		t.Error("hash should be valid before tampering")
	}

	entry.Changes["title"] = "Tampered"

	if entry.VerifyHash() {
		t.Error("hash should be invalid after tampering")
	}

	if entry.ComputeHash() == originalHash {
		t.Error("computed hash should differ after tampering")
	}
}

func TestVerifyHash(t *testing.T) {
	resourceID := types.NewID()

	entry := NewAuditEntry(
		ActorTypeSystem,
		"",
		"fulfillment.shipped",
		"fulfillment",
		&resourceID,
		map[string]any{"carrier": "ups"},
	)
	entry.PrevHash = "abc123prevhash"
	entry.Hash = entry.calculateHash()

	if !entry.VerifyHash() {
		t.Error("hash should be valid for a freshly linked entry")
	}
	if entry.PrevHash != "abc123prevhash" {
		t.Errorf("expected prev_hash 'abc123prevhash', got '%s'", entry.PrevHash)
	}
}

func TestCanonicalJSONDeterminism(t *testing.T) {
	resourceID := types.NewID()

	changes := map[string]any{
		"zebra":  "last",
		"apple":  "first",
		"middle": "middle",
		"nested": map[string]any{
			"z": 3,
			"a": 1,
			"m": 2,
		},
	}

	entry1 := NewAuditEntry(ActorTypeSystem, "", "collection.updated", "collection", &resourceID, changes)

	entry2 := &AuditEntry{
		ID:           entry1.ID,
		Timestamp:    entry1.Timestamp,
		PrevHash:     entry1.PrevHash,
		ActorType:    entry1.ActorType,
		ActorID:      entry1.ActorID,
		Action:       entry1.Action,
		ResourceType: entry1.ResourceType,
		ResourceID:   entry1.ResourceID,
		Changes:      changes,
	}
	entry2.Hash = entry2.calculateHash()

	if entry1.Hash != entry2.Hash {
		t.Errorf("hashes should be identical for the same data: got %s and %s", entry1.Hash, entry2.Hash)
	}
}

func TestEntryTimestampPrecision(t *testing.T) {
	entry := NewAuditEntry(ActorTypeSystem, "", "schedule.created", "schedule", nil, nil)

	if entry.Timestamp.Nanosecond()%1000 != 0 {
		t.Error("timestamp should be truncated to microseconds")
	}
	if entry.Timestamp.Location() != time.UTC {
		t.Error("timestamp should be in UTC")
	}
}

func TestWithRequest(t *testing.T) {
	entry := NewAuditEntry(ActorTypeExternal, "admin-1", "variant.updateInventory", "variant", nil, nil)

	entry.WithRequest("192.168.1.100")

	if entry.ActorIP != "192.168.1.100" {
		t.Errorf("expected IP '192.168.1.100', got '%s'", entry.ActorIP)
	}
}

func TestChainVerificationWithMultipleEntries(t *testing.T) {
	entries := make([]*AuditEntry, 100)
	prevHash := ""

	for i := 0; i < 100; i++ {
		resourceID := types.NewID()
		entries[i] = NewAuditEntry(
			ActorTypeSystem,
			"",
			"product.created",
			"product",
			&resourceID,
			map[string]any{"index": i},
		)
		entries[i].PrevHash = prevHash
		entries[i].Hash = entries[i].calculateHash()
		prevHash = entries[i].Hash
	}

	for i, entry := range entries {
		if !entry.VerifyHash() {
			t.Errorf("entry %d has invalid hash", i)
		}
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].PrevHash != entries[i-1].Hash {
			t.Errorf("chain broken at entry %d", i)
		}
	}

	middleIndex := 50
	entries[middleIndex].Changes["index"] = 999

	if entries[middleIndex].VerifyHash() {
		t.Error("tampered entry should have an invalid hash")
	}

	expectedPrevHash := entries[middleIndex-1].Hash
	if entries[middleIndex].PrevHash != expectedPrevHash {
		t.Error("prev_hash should still reference the previous entry's hash")
	}
}

func TestActorTypes(t *testing.T) {
	tests := []struct {
		name      string
		actorType ActorType
	}{
		{"System", ActorTypeSystem},
		{"External", ActorTypeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewAuditEntry(tt.actorType, "", "auth.sessionIssued", "auth", nil, nil)

			if entry.ActorType != tt.actorType {
				t.Errorf("expected actor type %s, got %s", tt.actorType, entry.ActorType)
			}
			if !entry.VerifyHash() {
				t.Error("hash should be valid")
			}
		})
	}
}
