package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/internal/domain/route"
	"github.com/okian/novaspire/pkg/logger"
	"github.com/okian/novaspire/pkg/metrics"
)

// Messages shown by the upload view.
const (
	MsgUploaded      = "Resume uploaded successfully!"
	MsgUploadFailed  = "Upload failed. Please try again."
	MsgMissingUpload = "Please select a resume file and enter a job description."
	MsgTooLarge      = "Resume file is too large."
)

// Form field names.
const (
	fieldResume         = "resume"
	fieldJobDescription = "job_desc"
	fieldStash          = "stash"
)

const multipartMemory = 1 << 20

type uploadBody struct {
	JobDescription string
	StashToken     string
	FileName       string
}

// userMessager is implemented by backend errors that carry a message meant
// for the user.
type userMessager interface {
	UserMessage(fallback string) string
}

func (rt *Router) uploadForm(w http.ResponseWriter, r *http.Request) {
	rt.render(w, r, route.Upload, http.StatusOK, "ready", page{
		Title: "Upload Resume",
		Body:  uploadBody{},
	})
}

// upload validates the form, sends exactly one upload request when it is
// complete and moves to the results view on success. On failure the job
// description is echoed back and the file is kept in the stash so it can be
// resubmitted as is.
func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUpload)

	err := r.ParseMultipartForm(multipartMemory)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		metrics.RecordUploadValidationFailure()
		rt.log.Info(ctx, "upload body over limit", logger.Int64("limit", tooLarge.Limit))
		rt.uploadError(w, r, http.StatusRequestEntityTooLarge, uploadBody{}, MsgTooLarge)
		return
	case err != nil && !errors.Is(err, http.ErrNotMultipart):
		metrics.RecordUploadValidationFailure()
		rt.log.Warn(ctx, "upload form unreadable", logger.Error(WrapKind("upload", ErrForm, err)))
		rt.uploadError(w, r, http.StatusBadRequest, uploadBody{}, MsgMissingUpload)
		return
	}

	body := uploadBody{JobDescription: r.FormValue(fieldJobDescription)}
	token := r.FormValue(fieldStash)

	var file *model.File
	if r.MultipartForm != nil {
		file, err = readResume(r)
		if err != nil {
			rt.log.Warn(ctx, "resume part unreadable", logger.Error(err))
		}
	}
	fresh := !file.Empty()
	if !fresh && token != "" {
		if f, ok := rt.deps.Get(ctx, token); ok {
			file = &f
		} else {
			token = ""
		}
	}

	req := model.UploadRequest{Resume: file, JobDescription: body.JobDescription}
	if err := req.Validate(); err != nil {
		metrics.RecordUploadValidationFailure()
		rt.log.Debug(ctx, "upload rejected before backend call", logger.Error(err))
		if fresh {
			token = rt.restash(ctx, token, *file)
		}
		rt.uploadError(w, r, http.StatusUnprocessableEntity, body.keep(token, file), MsgMissingUpload)
		return
	}

	resp, err := rt.deps.UploadResume(ctx, req)
	if err == nil && resp.Success {
		if token != "" {
			rt.deps.Drop(ctx, token)
		}
		setFlash(w, MsgUploaded)
		rt.navigate(w, r, route.Upload.String(), route.Results, http.StatusSeeOther)
		return
	}

	msg := MsgUploadFailed
	if err != nil {
		rt.log.Error(ctx, "upload failed", logger.Error(err))
		var um userMessager
		if errors.As(err, &um) {
			msg = um.UserMessage(msg)
		}
	} else {
		rt.log.Info(ctx, "upload declined by backend", logger.String("message", resp.Message))
		if resp.Message != "" {
			msg = resp.Message
		}
	}
	metrics.RecordErrorByComponent("site", "upload")
	if fresh {
		token = rt.restash(ctx, token, *file)
	}
	rt.uploadError(w, r, http.StatusOK, body.keep(token, file), msg)
}

// restash replaces the previous stash entry, if any, with f.
func (rt *Router) restash(ctx context.Context, old string, f model.File) string {
	if old != "" {
		rt.deps.Drop(ctx, old)
	}
	return rt.deps.Put(ctx, f)
}

func (b uploadBody) keep(token string, f *model.File) uploadBody {
	if token == "" || f.Empty() {
		return b
	}
	b.StashToken = token
	b.FileName = f.Name
	return b
}

func (rt *Router) uploadError(w http.ResponseWriter, r *http.Request, status int, body uploadBody, msg string) {
	rt.render(w, r, route.Upload, status, "error", page{
		Title: "Upload Resume",
		Error: msg,
		Body:  body,
	})
}

// readResume returns the uploaded file, or nil when none was chosen.
func readResume(r *http.Request) (*model.File, error) {
	f, hdr, err := r.FormFile(fieldResume)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open resume part: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read resume part: %w", err)
	}
	return &model.File{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
