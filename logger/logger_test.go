package logger

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("output respects the level", t, func() {
		var buf bytes.Buffer
		SetOutput(&buf)
		SetLevel(WarnLevel)
		defer SetLevel(InfoLevel)

		Info("hidden %d", 1)
		Warn("shown %d", 2)
		Error("also shown")

		So(buf.String(), ShouldNotContainSubstring, "hidden")
		So(buf.String(), ShouldContainSubstring, "[WARN] shown 2")
		So(buf.String(), ShouldContainSubstring, "[ERROR] also shown")
	})

	Convey("levels parse from the environment", t, func() {
		l, err := ParseLevel("DEBUG")
		So(err, ShouldBeNil)
		So(l, ShouldEqual, DebugLevel)

		l, err = ParseLevel("")
		So(err, ShouldBeNil)
		So(l, ShouldEqual, InfoLevel)

		_, err = ParseLevel("loud")
		So(err, ShouldNotBeNil)
	})
}
