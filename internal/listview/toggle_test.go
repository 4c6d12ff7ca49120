package listview

import (
	"context"
	"errors"
	"testing"
)

type statusPayload struct {
	Status bool
}

func prepareStatus(_ item, next bool) statusPayload {
	return statusPayload{Status: next}
}

func TestStatusToggle(t *testing.T) {
	tests := []struct {
		name      string
		updateErr error
		want      bool
	}{
		{"success keeps optimistic value", nil, false},
		{"failure rolls back", errRemote, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := NewRows(itemID, []item{{ID: 1, Status: true}, {ID: 2, Status: true}})
			var seen []bool
			update := func(_ context.Context, id int, p statusPayload) error {
				// The optimistic value is visible while the call is pending.
				got, _ := rows.Find(id)
				seen = append(seen, got.Status, p.Status)
				return tt.updateErr
			}
			toggle := NewStatusToggle(rows, itemStatus, prepareStatus, update, nil)

			row, _ := rows.Find(1)
			err := toggle.Toggle(context.Background(), row, false)
			if !errors.Is(err, tt.updateErr) {
				t.Fatalf("err = %v, want %v", err, tt.updateErr)
			}
			if len(seen) != 2 || seen[0] || seen[1] {
				t.Errorf("during update row/payload status = %v, want [false false]", seen)
			}
			if got, _ := rows.Find(1); got.Status != tt.want {
				t.Errorf("status = %v, want %v", got.Status, tt.want)
			}
			if other, _ := rows.Find(2); !other.Status {
				t.Error("toggle touched another row")
			}
		})
	}
}

func TestStatusToggleRowRemovedDuringUpdate(t *testing.T) {
	rows := NewRows(itemID, []item{{ID: 1, Status: true}})
	update := func(context.Context, int, statusPayload) error {
		rows.Remove([]int{1})
		return errRemote
	}
	toggle := NewStatusToggle(rows, itemStatus, prepareStatus, update, nil)

	if err := toggle.Toggle(context.Background(), item{ID: 1, Status: true}, false); err == nil {
		t.Fatal("expected error")
	}
	if rows.Len() != 0 {
		t.Error("rollback resurrected a removed row")
	}
}

func TestNewStatusTogglePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing status setter")
		}
	}()
	NewStatusToggle(NewRows(itemID, nil), StatusField[item]{Get: itemStatus.Get}, prepareStatus,
		func(context.Context, int, statusPayload) error { return nil }, nil)
}
