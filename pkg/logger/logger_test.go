package logger

import (
	"bytes"
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerWriter(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		defer func() { _ = Init() }()

		Convey("When logging at info level", func() {
			Get().Info(context.Background(), "backend call", String("op", "register"), Bool("ok", true))

			Convey("Then the record carries the message and fields", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "backend call")
				So(out, ShouldContainSubstring, "op=register")
				So(out, ShouldContainSubstring, "ok=true")
				So(out, ShouldContainSubstring, "source=")
			})
		})

		Convey("When the context carries a request id", func() {
			ctx := WithRequestID(context.Background(), "req-42")
			Get().Warn(ctx, "upload rejected")

			Convey("Then the record carries request_id", func() {
				So(buf.String(), ShouldContainSubstring, "request_id=req-42")
				So(RequestID(ctx), ShouldEqual, "req-42")
			})
		})

		Convey("When the level is raised to error", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			Get().Error(context.Background(), "shown")

			Convey("Then only the error record is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When a named logger is used", func() {
			Named("site").Info(context.Background(), "render")

			Convey("Then the component is attached", func() {
				So(buf.String(), ShouldContainSubstring, "component=site")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(SetLevelString("debug"), ShouldBeNil)
		So(SetLevelString("WARNING"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}

func TestInitWithNilWriter(t *testing.T) {
	Convey("Given a nil writer", t, func() {
		So(InitWithWriter(nil), ShouldNotBeNil)
	})
}
