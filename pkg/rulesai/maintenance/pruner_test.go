package maintenance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cognicore/rulesai/pkg/rulesai/store"
	"github.com/cognicore/rulesai/pkg/rulesai/store/memstore"
)

func seed(t *testing.T, st store.Store, cycles int64) {
	t.Helper()
	for c := int64(1); c <= cycles; c++ {
		for seq := 0; seq < 2; seq++ {
			d := store.Decision{ID: fmt.Sprintf("%02d-%d", c, seq), Cycle: c, Seq: seq, Functor: "doAttack", DecidedAt: time.Now()}
			if err := st.RecordDecision(context.Background(), d); err != nil {
				t.Fatalf("RecordDecision: %v", err)
			}
		}
	}
}

func TestPrunerKeepsRecentCycles(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	seed(t, st, 5)

	res, err := (&Pruner{Store: st, Keep: 2}).Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if res.LastCycle != 5 || res.Cutoff != 4 || res.Deleted != 6 {
		t.Errorf("unexpected result: %+v", res)
	}
	for c := int64(1); c <= 5; c++ {
		rows, _ := st.Decisions(ctx, c)
		if want := c >= 4; (len(rows) > 0) != want {
			t.Errorf("cycle %d: %d rows left", c, len(rows))
		}
	}
}

func TestPrunerNoop(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	res, err := (&Pruner{Store: st, Keep: 3}).Prune(ctx)
	if err != nil || res.Deleted != 0 {
		t.Errorf("empty store: %+v, %v", res, err)
	}

	seed(t, st, 2)
	res, err = (&Pruner{Store: st, Keep: 3}).Prune(ctx)
	if err != nil || res.Deleted != 0 {
		t.Errorf("window larger than history: %+v, %v", res, err)
	}

	res, err = (&Pruner{Store: st}).Prune(ctx)
	if err != nil || res.Deleted != 0 {
		t.Errorf("keep 0 retains everything: %+v, %v", res, err)
	}
}

func TestPrunerInvalidConfiguration(t *testing.T) {
	if _, err := (&Pruner{Keep: 1}).Prune(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
