package hardware

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSelectorCommands(t *testing.T) {
	m := MotorState{Motor1Speed: 3, Motor2Speed: 3, Motor3Speed: 7, SpeedDiff: 5}

	cases := []struct {
		key  string
		want MotorCommand
	}{
		{"up", MotorCommand{3, CW, 3, CCW, 0, CW}},
		{"down", MotorCommand{3, CCW, 3, CW, 0, CW}},
		{"left", MotorCommand{3, CW, 3, CW, 0, CW}},
		{"right", MotorCommand{3, CCW, 3, CCW, 0, CW}},
		{"d", MotorCommand{3, CW, 8, CW, 0, CW}},
		{"a", MotorCommand{3, CCW, 8, CCW, 0, CW}},
		{"w", MotorCommand{0, CW, 0, CW, 7, CW}},
		{"s", MotorCommand{0, CW, 0, CW, 7, CCW}},
	}

	Convey("each directional key selects the expected command", t, func() {
		for _, c := range cases {
			b, ok := LookupKey(c.key)
			So(ok, ShouldBeTrue)
			So(b.IsCommand(), ShouldBeTrue)
			So(b.Selector.Command(m), ShouldResemble, c.want)
		}
	})

	Convey("selectors read the state they are given", t, func() {
		other := m
		other.Motor1Speed = 10
		other.Motor2Speed = 10
		So(SEL_UP.Command(m).Speed1, ShouldEqual, 3)
		So(SEL_UP.Command(other).Speed1, ShouldEqual, 10)
	})

	Convey("no selector yields the neutral command", t, func() {
		So(SEL_NONE.Command(m), ShouldResemble, Neutral)
		So(Neutral, ShouldResemble, MotorCommand{0, CW, 0, CW, 0, CW})
	})
}

func TestKeyLookup(t *testing.T) {
	Convey("mutation keys", t, func() {
		for key, mut := range map[string]Mutation{
			"+": MUT_PAIR_UP, "=": MUT_PAIR_UP, "-": MUT_PAIR_DOWN,
			"]": MUT_M3_UP, "[": MUT_M3_DOWN,
		} {
			b, ok := LookupKey(key)
			So(ok, ShouldBeTrue)
			So(b.IsCommand(), ShouldBeFalse)
			So(b.Mutation, ShouldEqual, mut)
		}
	})

	Convey("keysym and browser aliases resolve", t, func() {
		for alias, key := range map[string]string{
			"Up": "up", "ArrowLeft": "left", "plus": "+", "equal": "=",
			"minus": "-", "bracketright": "]", "bracketleft": "[", "D": "d",
		} {
			b, ok := LookupKey(alias)
			So(ok, ShouldBeTrue)
			So(b.Key, ShouldEqual, key)
		}
	})

	Convey("unbound keys are ignored", t, func() {
		_, ok := LookupKey("q")
		So(ok, ShouldBeFalse)
		_, ok = LookupKey("")
		So(ok, ShouldBeFalse)
	})

	Convey("every listed key is bound", t, func() {
		for _, key := range BoundKeys() {
			_, ok := LookupKey(key)
			So(ok, ShouldBeTrue)
		}
	})
}

func TestMutations(t *testing.T) {
	Convey("mutations apply to the state", t, func() {
		m := NewMotorState()
		MUT_PAIR_UP.Apply(m)
		MUT_M3_DOWN.Apply(m)
		MUT_NONE.Apply(m)
		So(*m, ShouldResemble, MotorState{2, 2, 0, 5})
		So(MUT_M3_UP.DrivesMotor3(), ShouldBeTrue)
		So(MUT_PAIR_DOWN.DrivesMotor3(), ShouldBeFalse)
	})
}

func TestLabels(t *testing.T) {
	Convey("display labels follow the held selector", t, func() {
		m := MotorState{Motor1Speed: 3, Motor2Speed: 3, Motor3Speed: 2, SpeedDiff: 5}
		So(SEL_UP.Label(m), ShouldEqual, "Speed: 3 RPM (Opposite)")
		So(SEL_LEFT.Label(m), ShouldEqual, "Speed: 3 RPM (Same CW)")
		So(SEL_RIGHT.Label(m), ShouldEqual, "Speed: 3 RPM (Same CCW)")
		So(SEL_DIFF_CCW.Label(m), ShouldEqual, "Speed: 3 & 8 RPM")
		So(SEL_M3_REVERSE.Label(m), ShouldEqual, "Speed: 2 RPM (CCW)")
		So(SEL_NONE.Label(m), ShouldEqual, "Speed: 0 RPM")
		So(SEL_M3_FORWARD.DrivesMotor3(), ShouldBeTrue)
		So(SEL_DOWN.DrivesMotor3(), ShouldBeFalse)
	})

	Convey("sent log formatting", t, func() {
		So(SEL_UP.Command(MotorState{1, 1, 1, 5}).String(), ShouldEqual,
			"M1: 1 RPM, Dir: CW | M2: 1 RPM, Dir: CCW | M3: 0 RPM, Dir: CW")
	})
}
