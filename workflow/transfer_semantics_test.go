package workflow

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// NOTE: These tests are intentionally DB-free. They validate the intended transfer semantics:
// - at-least-once submission is safe via durable idempotency keys
// - per-sender serialization prevents racey balance interleavings
//
// Full DB integration tests should be added in an environment that can run MySQL.

type fakeLedger struct {
	muBySender map[string]*sync.Mutex
	mu         sync.Mutex
	seen       map[string]bool
	balances   map[string]int64
	commits    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		muBySender: map[string]*sync.Mutex{},
		seen:       map[string]bool{},
		balances:   map[string]int64{},
	}
}

func (l *fakeLedger) credit(userId string, amount int64) {
	l.mu.Lock()
	l.balances[userId] += amount
	l.mu.Unlock()
}

func (l *fakeLedger) balance(userId string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userId]
}

// transfer mirrors the workflow ordering: sender lock, idempotency check,
// balance check, then the paired postings.
func (l *fakeLedger) transfer(senderId, recipientId, idempotencyKey string, amount int64) bool {
	l.mu.Lock()
	sm := l.muBySender[senderId]
	if sm == nil {
		sm = &sync.Mutex{}
		l.muBySender[senderId] = sm
	}
	l.mu.Unlock()

	// Serialize per sender (workflow AcquireSenderLock).
	sm.Lock()
	defer sm.Unlock()

	// Deduplicate (models TransferIdempotencyKey).
	key := senderId + "|" + idempotencyKey
	l.mu.Lock()
	if l.seen[key] {
		l.mu.Unlock()
		return true
	}
	if l.balances[senderId] < amount {
		l.mu.Unlock()
		return false
	}
	l.seen[key] = true
	l.balances[senderId] -= amount
	l.balances[recipientId] += amount
	l.commits++
	l.mu.Unlock()
	return true
}

func TestTransfer_DuplicateSubmission_CommitsOnce(t *testing.T) {
	l := newFakeLedger()
	l.credit("alice", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.transfer("alice", "bob", "key-1", 400)
		}()
	}
	wg.Wait()

	if l.commits != 1 {
		t.Fatalf("expected exactly 1 committed transfer, got %d", l.commits)
	}
	if got := l.balance("alice"); got != 600 {
		t.Fatalf("expected sender balance 600, got %d", got)
	}
	if got := l.balance("bob"); got != 400 {
		t.Fatalf("expected recipient balance 400, got %d", got)
	}
}

func TestTransfer_Property_NoOverdraftUnderConcurrency(t *testing.T) {
	for run := 0; run < 100; run++ {
		l := newFakeLedger()
		l.credit("alice", 500)

		var wg sync.WaitGroup
		// 50 distinct keys racing, each for 200: only 2 can fit in 500.
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				l.transfer("alice", "bob", string(rune('a'+i)), 200)
			}(i)
		}
		wg.Wait()

		if got := l.balance("alice"); got < 0 {
			t.Fatalf("run=%d sender overdrawn: %d", run, got)
		}
		if l.commits != 2 {
			t.Fatalf("run=%d expected 2 commits out of 500/200, got %d", run, l.commits)
		}
		if total := l.balance("alice") + l.balance("bob"); total != 500 {
			t.Fatalf("run=%d value not conserved: %d", run, total)
		}
	}
}

// commitLedger separates staged writes from committed state: a reader only
// ever sees committed balances, like the database's consistent reads. The
// sender lock wraps the whole transaction including the commit, matching
// the pinned-connection ordering in Transfer.
type commitLedger struct {
	muBySender map[string]*sync.Mutex
	mu         sync.Mutex
	committed  map[string]int64
	commits    int
}

func newCommitLedger() *commitLedger {
	return &commitLedger{
		muBySender: map[string]*sync.Mutex{},
		committed:  map[string]int64{},
	}
}

func (l *commitLedger) credit(userId string, amount int64) {
	l.mu.Lock()
	l.committed[userId] += amount
	l.mu.Unlock()
}

func (l *commitLedger) balance(userId string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.committed[userId]
}

func (l *commitLedger) senderMutex(senderId string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	sm := l.muBySender[senderId]
	if sm == nil {
		sm = &sync.Mutex{}
		l.muBySender[senderId] = sm
	}
	return sm
}

func (l *commitLedger) transfer(senderId, recipientId string, amount int64) bool {
	sm := l.senderMutex(senderId)
	sm.Lock()
	// Released only after the staged postings are committed. Unlocking
	// before the commit would let the next holder read the pre-debit
	// balance and overdraw the sender.
	defer sm.Unlock()

	l.mu.Lock()
	balance := l.committed[senderId]
	l.mu.Unlock()
	if balance < amount {
		return false
	}

	// Stage the paired postings; nothing is visible to other readers yet.
	staged := map[string]int64{senderId: -amount, recipientId: amount}

	// Widen the gap between the balance read and the commit.
	runtime.Gosched()

	l.mu.Lock()
	for userId, delta := range staged {
		l.committed[userId] += delta
	}
	l.commits++
	l.mu.Unlock()
	return true
}

func TestTransfer_LockHeldAcrossCommit_NoStaleBalanceRead(t *testing.T) {
	for run := 0; run < 200; run++ {
		l := newCommitLedger()
		l.credit("alice", 500)

		var wg sync.WaitGroup
		// Eight racers for 400 each out of 500: only one can ever commit,
		// and only if each racer observes the previous commit before its
		// own balance check.
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.transfer("alice", "bob", 400)
			}()
		}
		wg.Wait()

		if got := l.balance("alice"); got < 0 {
			t.Fatalf("run=%d sender overdrawn: %d", run, got)
		}
		if l.commits != 1 {
			t.Fatalf("run=%d expected exactly 1 commit of 400 from 500, got %d", run, l.commits)
		}
		if total := l.balance("alice") + l.balance("bob"); total != 500 {
			t.Fatalf("run=%d value not conserved: %d", run, total)
		}
	}
}

// debitWindow mirrors the transfer cap gate: sum the debits in the rolling
// 24h window ending at now, reject when the new amount would push past the
// cap. The window trails the wall clock, it is not a calendar day.
type debitWindow struct {
	cap    int64
	debits []struct {
		at     time.Time
		amount int64
	}
}

func (w *debitWindow) sentInWindow(now time.Time) int64 {
	var total int64
	cutoff := now.Add(-24 * time.Hour)
	for _, d := range w.debits {
		if d.at.After(cutoff) {
			total += d.amount
		}
	}
	return total
}

func (w *debitWindow) send(now time.Time, amount int64) bool {
	if w.sentInWindow(now)+amount > w.cap {
		return false
	}
	w.debits = append(w.debits, struct {
		at     time.Time
		amount int64
	}{now, amount})
	return true
}

func TestTransferCap_RollingWindow(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	w := &debitWindow{cap: 1000}

	if !w.send(t0, 800) {
		t.Fatal("first debit of 800 under a 1000 cap must pass")
	}

	// Half an hour later, past midnight: a calendar-day cap would reset
	// here, the rolling window must not.
	if w.send(t0.Add(time.Hour), 300) {
		t.Fatal("800+300 exceeds the cap inside the window, must be rejected")
	}
	if !w.send(t0.Add(time.Hour), 200) {
		t.Fatal("800+200 exactly meets the cap, must pass")
	}

	// 23 hours in, both debits still count.
	if w.send(t0.Add(23*time.Hour), 1) {
		t.Fatal("window is saturated at hour 23, must be rejected")
	}

	// 25 hours in, the opening debit has rolled out; only the 200 from
	// hour 1 remains in the window.
	if got := w.sentInWindow(t0.Add(25 * time.Hour)); got != 200 {
		t.Fatalf("expected 200 in window at hour 25, got %d", got)
	}
	if !w.send(t0.Add(25*time.Hour), 800) {
		t.Fatal("200+800 meets the cap after rollout, must pass")
	}
}
