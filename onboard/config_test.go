package onboard

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodedInternet/motorlink/onboard/hardware"
	. "github.com/smartystreets/goconvey/convey"
)

const testYaml = `
version: 1.2.0
serial:
  port: /dev/ttyACM0
  timeout: 500ms
sender:
  period: 50ms
motors:
  pair_speed: 0
  speed_diff: 8
`

func TestConfigParsing(t *testing.T) {
	Convey("parsing is successful", t, func() {
		config := DefaultConfig()
		err := ParseConfig([]byte(testYaml), config)
		So(err, ShouldBeNil)

		Convey("values from the file are applied", func() {
			So(config.Serial.Port, ShouldEqual, "/dev/ttyACM0")
			So(config.Serial.Timeout, ShouldEqual, 500*time.Millisecond)
			So(config.Sender.Period, ShouldEqual, 50*time.Millisecond)
			So(config.Motors.PairSpeed, ShouldEqual, 0)
			So(config.Motors.SpeedDiff, ShouldEqual, 8)
		})

		Convey("missing values keep their defaults", func() {
			So(config.Serial.Baud, ShouldEqual, 115200)
			So(config.Motors.M3Speed, ShouldEqual, 1)
		})

		Convey("the motor state is seeded", func() {
			m, err := config.MotorState()
			So(err, ShouldBeNil)
			So(*m, ShouldResemble, hardware.MotorState{Motor1Speed: 0, Motor2Speed: 0, Motor3Speed: 1, SpeedDiff: 8})
		})
	})

	Convey("defaults match the start up state", t, func() {
		config := DefaultConfig()
		So(config.Validate(), ShouldBeNil)
		So(config.Sender.Period, ShouldEqual, 100*time.Millisecond)
		So(config.Serial.Timeout, ShouldEqual, time.Second)
		m, _ := config.MotorState()
		So(*m, ShouldResemble, *hardware.NewMotorState())
	})
}

func TestConfigValidation(t *testing.T) {
	Convey("incompatible versions are rejected", t, func() {
		config := DefaultConfig()
		So(ParseConfig([]byte("version: 2.0.0"), config), ShouldBeError)

		config = DefaultConfig()
		So(ParseConfig([]byte("version: banana"), config), ShouldBeError)
	})

	Convey("out of range motor values are rejected", t, func() {
		config := DefaultConfig()
		So(ParseConfig([]byte("motors:\n  speed_diff: 11\n"), config), ShouldBeError)

		config = DefaultConfig()
		So(ParseConfig([]byte("motors:\n  m3_speed: 31\n"), config), ShouldBeError)
	})

	Convey("non positive timings are rejected", t, func() {
		config := DefaultConfig()
		So(ParseConfig([]byte("sender:\n  period: 0s\n"), config), ShouldBeError)
	})
}

func TestLoadConfig(t *testing.T) {
	Convey("a missing file yields defaults", t, func() {
		config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldBeNil)
		So(config, ShouldResemble, DefaultConfig())
	})

	Convey("a file on disk is loaded", t, func() {
		filename := filepath.Join(t.TempDir(), "motor_config.yaml")
		So(ioutil.WriteFile(filename, []byte(testYaml), 0644), ShouldBeNil)

		config, err := LoadConfig(filename)
		So(err, ShouldBeNil)
		So(config.Serial.Port, ShouldEqual, "/dev/ttyACM0")
	})
}
