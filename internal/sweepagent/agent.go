package sweepagent

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"tourist-tracker/internal/breach"
)

// Agent drives periodic breach detection sweeps. One agent runs one
// sweep at a time; a tick arriving mid-sweep is dropped by the
// sweeper's own guard.
type Agent struct {
	Sweeper  *breach.Sweeper
	Interval int

	intvlTicker *time.Ticker
	killSig     chan struct{}
	wg          *sync.WaitGroup
}

func (s *Agent) runSweep() {
	result, err := s.Sweeper.Run(context.Background())
	if errors.Is(err, breach.ErrSweepInProgress) {
		log.Printf("agent: previous sweep still running, tick skipped")
		return
	}
	if err != nil {
		// The next tick is the retry; the sweep itself never retries.
		log.Printf("agent: sweep failed (%v)", err)
		return
	}

	if result.CreatedAlerts > 0 || result.ResolvedAlerts > 0 {
		log.Printf("agent: sweep opened %d and resolved %d alerts", result.CreatedAlerts, result.ResolvedAlerts)
	}

	return
}

func (s *Agent) finish() {
	if s.intvlTicker != nil {
		s.intvlTicker.Stop()
	}

	if s.wg != nil {
		s.wg.Done()
	}

	log.Printf("agent: finished sweep thread")

	return
}

func (s *Agent) Run(wg *sync.WaitGroup, killSig chan struct{}) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 10
	}

	log.Printf("agent: start sweep agent thread (interval %d)", interval)

	// init
	s.intvlTicker = time.NewTicker(time.Duration(interval) * time.Second)
	s.killSig = killSig
	s.wg = wg

	// start
	wg.Add(1)
	defer s.finish()

	s.runSweep()
	for {
		select {
		case <-killSig:
			return nil
		case <-s.intvlTicker.C:
			s.runSweep()
		}
	}
}
