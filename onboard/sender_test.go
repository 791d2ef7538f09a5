package onboard

import (
	"sync"
	"testing"
	"time"

	"github.com/CodedInternet/motorlink/onboard/hardware"
	. "github.com/smartystreets/goconvey/convey"
)

const testPeriod = 20 * time.Millisecond

type emitLog struct {
	lock sync.Mutex
	cmds []hardware.MotorCommand
}

func (e *emitLog) emit(cmd hardware.MotorCommand) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.cmds = append(e.cmds, cmd)
}

func (e *emitLog) all() []hardware.MotorCommand {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]hardware.MotorCommand(nil), e.cmds...)
}

func TestContinuousSender(t *testing.T) {
	state := *hardware.NewMotorState()
	up := hardware.SEL_UP.Command(state)

	Convey("starting a hold", t, func() {
		log := new(emitLog)
		sender := NewContinuousSender(testPeriod, log.emit)

		So(sender.Start(hardware.SEL_UP, state), ShouldBeTrue)
		defer sender.Stop()

		Convey("sends immediately", func() {
			So(log.all(), ShouldNotBeEmpty)
			So(log.all()[0], ShouldResemble, up)
		})

		Convey("repeats at the period", func() {
			So(eventually(time.Second, func() bool { return len(log.all()) >= 4 }), ShouldBeTrue)
			for _, cmd := range log.all() {
				So(cmd, ShouldResemble, up)
			}
		})

		Convey("a second start is refused", func() {
			So(sender.Start(hardware.SEL_DOWN, state), ShouldBeFalse)
			time.Sleep(3 * testPeriod)
			for _, cmd := range log.all() {
				So(cmd, ShouldResemble, up)
			}
		})
	})

	Convey("stopping a hold", t, func() {
		log := new(emitLog)
		sender := NewContinuousSender(testPeriod, log.emit)
		sender.Start(hardware.SEL_M3_FORWARD, state)
		time.Sleep(3 * testPeriod)

		So(sender.Stop(), ShouldBeTrue)
		So(sender.Running(), ShouldBeFalse)

		cmds := log.all()
		So(cmds[len(cmds)-1], ShouldResemble, hardware.Neutral)

		Convey("emits exactly one neutral and nothing after", func() {
			time.Sleep(4 * testPeriod)
			after := log.all()
			So(len(after), ShouldEqual, len(cmds))

			neutral := 0
			for _, cmd := range after {
				if cmd == hardware.Neutral {
					neutral++
				}
			}
			So(neutral, ShouldEqual, 1)
		})

		Convey("stopping again is a no-op", func() {
			So(sender.Stop(), ShouldBeFalse)
			So(len(log.all()), ShouldEqual, len(cmds))
		})

		Convey("a new hold can start", func() {
			So(sender.Start(hardware.SEL_LEFT, state), ShouldBeTrue)
			sender.Stop()
		})
	})

	Convey("the held state is a copy", t, func() {
		log := new(emitLog)
		sender := NewContinuousSender(testPeriod, log.emit)
		held := state
		sender.Start(hardware.SEL_UP, held)
		held.Motor1Speed = 20
		time.Sleep(3 * testPeriod)
		sender.Stop()

		for _, cmd := range log.all() {
			So(cmd.Speed1, ShouldBeIn, []int{0, 1})
		}
	})

	Convey("a zero period falls back to the default", t, func() {
		sender := NewContinuousSender(0, func(hardware.MotorCommand) {})
		So(sender.period, ShouldEqual, SEND_PERIOD)
	})
}

func TestContinuousSenderRace(t *testing.T) {
	Convey("rapid press and release never leaves a hold running", t, func() {
		log := new(emitLog)
		sender := NewContinuousSender(time.Millisecond, log.emit)
		state := *hardware.NewMotorState()

		for i := 0; i < 50; i++ {
			sender.Start(hardware.SEL_RIGHT, state)
			time.Sleep(time.Duration(i%3) * time.Millisecond)
			sender.Stop()

			cmds := log.all()
			So(cmds[len(cmds)-1], ShouldResemble, hardware.Neutral)
		}
		So(sender.Running(), ShouldBeFalse)
	})
}
