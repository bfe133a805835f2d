package sweepagent

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tourist-tracker/internal/breach"
	"tourist-tracker/internal/store"
)

// Config defines the configuration structure for the sweep daemon
type Config struct {
	Db    store.Config `mapstructure:"db"`
	Sweep struct {
		Interval  int `mapstructure:"interval"`
		Workers   int `mapstructure:"workers"`
		OpTimeout int `mapstructure:"op_timeout"`
	} `mapstructure:"sweep"`
}

type Daemon struct {
	cfg Config

	agent *Agent
	wg    *sync.WaitGroup
}

func New(cfg Config) (*Daemon, error) {
	// Base Initialization
	r := &Daemon{
		cfg: cfg,
		wg:  &sync.WaitGroup{},
	}

	// DB Conn Initialization
	db, err := store.New(cfg.Db)
	if err != nil {
		return nil, err
	}

	// Sweep Agent Initialization
	r.agent = &Agent{
		Sweeper:  breach.New(db, cfg.Sweep.Workers, time.Duration(cfg.Sweep.OpTimeout)*time.Second),
		Interval: cfg.Sweep.Interval,
	}

	return r, nil
}

func (s *Daemon) Run() error {
	// Launch
	agentShutdownSig := make(chan struct{}, 1)
	go s.agent.Run(s.wg, agentShutdownSig)

	// Main thread to wait until we get a kill signal or something go wrong
	killSig := make(chan os.Signal, 1)
	signal.Notify(killSig, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	<-killSig

	log.Printf("Caught kill signal, shutting down")
	close(agentShutdownSig)
	s.wg.Wait()

	log.Printf("All threads exited")

	return nil
}
