package chat

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// KeyNoPet is the subject sentinel for chats that are not about a pet.
const KeyNoPet = "none"

// CanonicalKey normalizes a participant set into the order-independent key
// that enforces at-most-one-chat-per-set: deduplicated ids, sorted, prefixed
// with the pet id (or the sentinel). It also returns the distinct ids in
// canonical order.
func CanonicalKey(petID *uuid.UUID, userIDs []uuid.UUID) (string, []uuid.UUID) {
	seen := make(map[uuid.UUID]bool, len(userIDs))
	distinct := make([]uuid.UUID, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		distinct = append(distinct, id)
	}
	sort.Slice(distinct, func(i, j int) bool {
		return distinct[i].String() < distinct[j].String()
	})

	subject := KeyNoPet
	if petID != nil && *petID != uuid.Nil {
		subject = petID.String()
	}

	parts := make([]string, 0, len(distinct)+1)
	parts = append(parts, subject)
	for _, id := range distinct {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ":"), distinct
}
