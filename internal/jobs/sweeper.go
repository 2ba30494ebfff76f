package jobs

import (
	"log"
	"time"

	"github.com/sstracker/sstracker-backend/internal/storage"
)

// SweeperJob periodically flips time-expired OTP records and sessions that
// nobody touched again. Records are soft history, so the sweep only marks
// them and never deletes. The auth flows do the same flips lazily on
// access; the sweeper keeps the tables honest for rows nobody revisits.
type SweeperJob struct {
	store     storage.Store
	interval  time.Duration
	isRunning bool
	stop      chan struct{}
}

// NewSweeperJob creates the sweeper. Interval is how often both namespaces
// are swept.
func NewSweeperJob(store storage.Store, interval time.Duration) *SweeperJob {
	return &SweeperJob{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (j *SweeperJob) Start() {
	if j.isRunning {
		log.Println("Sweeper already running")
		return
	}
	j.isRunning = true
	log.Printf("Starting OTP/session sweeper (every %v)", j.interval)
	go j.loop()
}

// Stop halts the sweep loop.
func (j *SweeperJob) Stop() {
	if !j.isRunning {
		return
	}
	j.isRunning = false
	close(j.stop)
	log.Println("Stopping OTP/session sweeper...")
}

func (j *SweeperJob) loop() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.SweepOnce(time.Now())
		case <-j.stop:
			return
		}
	}
}

// SweepOnce runs a single sweep over both namespaces.
func (j *SweeperJob) SweepOnce(now time.Time) {
	for _, ns := range []storage.Namespace{storage.ConsignorNS, storage.TransporterNS} {
		if n, err := j.store.SweepExpiredOTPs(ns, now); err != nil {
			log.Printf("⚠️  OTP sweep failed for %s: %v", ns.OTPTable, err)
		} else if n > 0 {
			log.Printf("Swept %d expired OTP records in %s", n, ns.OTPTable)
		}

		if n, err := j.store.SweepExpiredSessions(ns, now); err != nil {
			log.Printf("⚠️  Session sweep failed for %s: %v", ns.SessionTable, err)
		} else if n > 0 {
			log.Printf("Swept %d expired sessions in %s", n, ns.SessionTable)
		}
	}
}
