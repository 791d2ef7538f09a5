package onboard

import (
	"sync"
	"time"

	"github.com/CodedInternet/motorlink/onboard/hardware"
)

const SEND_PERIOD = time.Second / 10

// ContinuousSender repeats a held command at a fixed period. Only one hold
// runs at a time; stopping it always emits exactly one neutral command.
type ContinuousSender struct {
	period time.Duration
	emit   func(cmd hardware.MotorCommand)

	lock    sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewContinuousSender(period time.Duration, emit func(cmd hardware.MotorCommand)) *ContinuousSender {
	if period <= 0 {
		period = SEND_PERIOD
	}
	return &ContinuousSender{
		period: period,
		emit:   emit,
	}
}

// Start sends sel's command once, then again every period until Stop. The
// selector is evaluated against state on every tick. Returns false without
// doing anything if a hold is already running.
func (s *ContinuousSender) Start(sel hardware.Selector, state hardware.MotorState) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.running {
		return false
	}

	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	s.emit(sel.Command(state))
	go s.loop(sel, state, s.stop, s.done)

	return true
}

// Stop cancels the hold and emits the neutral command. No tick fires after
// Stop returns.
func (s *ContinuousSender) Stop() bool {
	s.lock.Lock()
	if !s.running {
		s.lock.Unlock()
		return false
	}

	close(s.stop)
	s.running = false
	s.emit(hardware.Neutral)
	done := s.done
	s.lock.Unlock()

	<-done
	return true
}

func (s *ContinuousSender) Running() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.running
}

func (s *ContinuousSender) loop(sel hardware.Selector, state hardware.MotorState, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return

		case <-ticker.C:
			s.lock.Lock()
			select {
			case <-stop:
				// Stop won the race for the lock
				s.lock.Unlock()
				return
			default:
			}
			s.emit(sel.Command(state))
			s.lock.Unlock()
		}
	}
}
