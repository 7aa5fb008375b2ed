package model_test

import (
	"errors"
	"testing"

	"github.com/okian/novaspire/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCredentialsValidate(t *testing.T) {
	Convey("Given registration credentials", t, func() {
		Convey("When email and password are present", func() {
			c := model.Credentials{Email: "ada@example.com", Password: "x"}

			Convey("Then they are valid regardless of password strength", func() {
				So(c.Validate(), ShouldBeNil)
			})
		})

		Convey("When the email is malformed", func() {
			err := model.Credentials{Email: "ada", Password: "secret"}.Validate()

			Convey("Then validation fails with ErrInvalidCredentials", func() {
				So(errors.Is(err, model.ErrInvalidCredentials), ShouldBeTrue)
			})
		})

		Convey("When the password is missing", func() {
			err := model.Credentials{Email: "ada@example.com"}.Validate()

			Convey("Then validation fails", func() {
				So(errors.Is(err, model.ErrInvalidCredentials), ShouldBeTrue)
			})
		})
	})
}

func TestUploadRequestValidate(t *testing.T) {
	Convey("Given upload requests", t, func() {
		file := &model.File{Name: "cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}

		Convey("When file and job description are present", func() {
			So(model.UploadRequest{Resume: file, JobDescription: "Go developer"}.Validate(), ShouldBeNil)
		})

		Convey("When the file is missing", func() {
			err := model.UploadRequest{JobDescription: "Go developer"}.Validate()
			So(errors.Is(err, model.ErrMissingUpload), ShouldBeTrue)
		})

		Convey("When the file is empty", func() {
			err := model.UploadRequest{Resume: &model.File{Name: "cv.pdf"}, JobDescription: "Go"}.Validate()
			So(errors.Is(err, model.ErrMissingUpload), ShouldBeTrue)
		})

		Convey("When the job description is blank", func() {
			err := model.UploadRequest{Resume: file, JobDescription: "  \n"}.Validate()
			So(errors.Is(err, model.ErrMissingUpload), ShouldBeTrue)
		})
	})
}

func TestFormatting(t *testing.T) {
	Convey("Given presentation helpers", t, func() {
		So(model.JoinSkills([]string{"Python", "SQL"}), ShouldEqual, "Python, SQL")
		So(model.JoinSkills(nil), ShouldEqual, "")
		So(model.FormatPercent(82), ShouldEqual, "82%")
		So(model.FormatPercent(82.5), ShouldEqual, "82.5%")
		So(model.FormatPercent(0), ShouldEqual, "0%")
	})
}
