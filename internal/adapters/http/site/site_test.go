package site

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/internal/domain/stash"
	"github.com/okian/novaspire/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// backendMessageError mimics a backend error that carries a user message.
type backendMessageError struct{ msg string }

func (e backendMessageError) Error() string { return "backend: " + e.msg }

func (e backendMessageError) UserMessage(fallback string) string {
	if e.msg == "" {
		return fallback
	}
	return e.msg
}

type fakeDeps struct {
	stash.Stash

	mu       sync.Mutex
	calls    map[string]int
	creds    []model.Credentials
	uploads  []model.UploadRequest
	register func() (model.RegisterResponse, error)
	upload   func() (model.UploadResponse, error)
	result   func() (model.AnalysisResult, error)
	history  func() ([]model.HistoryEntry, error)
	export   func() ([]byte, error)
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		Stash: stash.NewInMemoryStash(),
		calls: map[string]int{},
		register: func() (model.RegisterResponse, error) {
			return model.RegisterResponse{Success: true}, nil
		},
		upload: func() (model.UploadResponse, error) {
			return model.UploadResponse{Success: true}, nil
		},
		result: func() (model.AnalysisResult, error) {
			return model.AnalysisResult{}, errors.New("not configured")
		},
		history: func() ([]model.HistoryEntry, error) {
			return nil, nil
		},
		export: func() ([]byte, error) {
			return nil, errors.New("not configured")
		},
	}
}

func (f *fakeDeps) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeDeps) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeDeps) Register(_ context.Context, c model.Credentials) (model.RegisterResponse, error) {
	f.hit("register")
	f.mu.Lock()
	f.creds = append(f.creds, c)
	f.mu.Unlock()
	return f.register()
}

func (f *fakeDeps) UploadResume(_ context.Context, req model.UploadRequest) (model.UploadResponse, error) {
	f.hit("upload")
	f.mu.Lock()
	f.uploads = append(f.uploads, req)
	f.mu.Unlock()
	return f.upload()
}

func (f *fakeDeps) FetchLatestResult(context.Context) (model.AnalysisResult, error) {
	f.hit("results")
	return f.result()
}

func (f *fakeDeps) FetchHistory(context.Context) ([]model.HistoryEntry, error) {
	f.hit("history")
	return f.history()
}

func (f *fakeDeps) ExportResultAsPDF(context.Context) ([]byte, error) {
	f.hit("export")
	return f.export()
}

func newTestRouter(deps *fakeDeps, opts ...Option) http.Handler {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
	rt, err := NewRouter(deps, opts...)
	if err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	rt.Register(context.Background(), mux)
	return mux
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func registerForm(email, password string) *http.Request {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

var stashToken = regexp.MustCompile(`name="stash" value="([^"]+)"`)

type uploadForm struct {
	fileName string
	data     []byte
	jobDesc  string
	token    string
}

func (u uploadForm) request() *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if u.fileName != "" {
		part, _ := mw.CreateFormFile(fieldResume, u.fileName)
		_, _ = part.Write(u.data)
	}
	_ = mw.WriteField(fieldJobDescription, u.jobDesc)
	if u.token != "" {
		_ = mw.WriteField(fieldStash, u.token)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRouter(t *testing.T) {
	Convey("Given the site router", t, func() {
		deps := newFakeDeps()
		h := newTestRouter(deps)

		Convey("When an unknown path is requested", func() {
			w := serve(h, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

			Convey("Then it redirects to the landing view", func() {
				So(w.Code, ShouldEqual, http.StatusFound)
				So(w.Header().Get("Location"), ShouldEqual, "/")
			})
		})

		Convey("When a known path has a trailing slash", func() {
			w := serve(h, httptest.NewRequest(http.MethodGet, "/history/", nil))

			Convey("Then the view is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Analysis History")
			})
		})

		Convey("When a method is not supported", func() {
			w := serve(h, httptest.NewRequest(http.MethodPut, "/history", nil))

			Convey("Then 405 lists the allowed methods", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, "GET, HEAD")
			})
		})

		Convey("When any page is rendered", func() {
			w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then the navigation links every view and a request id is set", func() {
				body := w.Body.String()
				for _, p := range []string{`href="/upload"`, `href="/results"`, `href="/history"`} {
					So(body, ShouldContainSubstring, p)
				}
				So(w.Header().Get("X-Request-Id"), ShouldNotBeEmpty)
			})
		})
	})
}

func TestNewRouterWithoutDependencies(t *testing.T) {
	Convey("Given no dependencies", t, func() {
		_, err := NewRouter(nil)

		Convey("Then construction fails", func() {
			So(errors.Is(err, ErrNoDependencies), ShouldBeTrue)
		})
	})
}

func TestLandingView(t *testing.T) {
	Convey("Given the landing view", t, func() {
		deps := newFakeDeps()
		h := newTestRouter(deps)

		Convey("When it is opened", func() {
			w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then the marketing content and form are shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Transform Your Career with AI-Powered Resume Analysis")
				So(w.Body.String(), ShouldContainSubstring, `type="email"`)
				So(w.Body.String(), ShouldContainSubstring, "How Novaspire Works")
			})
		})

		Convey("When registration succeeds", func() {
			w := serve(h, registerForm("a@b.co", "secret"))

			Convey("Then exactly one redirect to the upload view happens", func() {
				So(deps.count("register"), ShouldEqual, 1)
				So(deps.creds[0], ShouldResemble, model.Credentials{Email: "a@b.co", Password: "secret"})
				So(w.Code, ShouldEqual, http.StatusSeeOther)
				So(w.Header().Values("Location"), ShouldResemble, []string{"/upload"})
			})

			Convey("And the next page shows the confirmation once", func() {
				next := httptest.NewRequest(http.MethodGet, "/upload", nil)
				for _, c := range w.Result().Cookies() {
					next.AddCookie(c)
				}
				w2 := serve(h, next)
				So(w2.Body.String(), ShouldContainSubstring, MsgRegistered)

				cleared := false
				for _, c := range w2.Result().Cookies() {
					if c.Name == flashCookie && c.MaxAge < 0 {
						cleared = true
					}
				}
				So(cleared, ShouldBeTrue)
			})
		})

		Convey("When the backend declines the registration", func() {
			deps.register = func() (model.RegisterResponse, error) {
				return model.RegisterResponse{Success: false}, nil
			}
			w := serve(h, registerForm("a@b.co", "secret"))

			Convey("Then the user stays on the landing view with an error", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, MsgRegistrationFailed)
				So(w.Body.String(), ShouldContainSubstring, `value="a@b.co"`)
				So(w.Body.String(), ShouldNotContainSubstring, "secret")
			})
		})

		Convey("When the backend is unreachable", func() {
			deps.register = func() (model.RegisterResponse, error) {
				return model.RegisterResponse{}, errors.New("connection refused")
			}
			w := serve(h, registerForm("a@b.co", "secret"))

			Convey("Then the generic failure message is shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, MsgRegistrationFailed)
			})
		})

		Convey("When the email is malformed", func() {
			w := serve(h, registerForm("not-an-email", "secret"))

			Convey("Then no backend request is made", func() {
				So(deps.count("register"), ShouldEqual, 0)
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(w.Body.String(), ShouldContainSubstring, MsgInvalidCredentials)
			})
		})
	})
}

func TestUploadView(t *testing.T) {
	Convey("Given the upload view", t, func() {
		deps := newFakeDeps()
		h := newTestRouter(deps)

		Convey("When it is opened", func() {
			w := serve(h, httptest.NewRequest(http.MethodGet, "/upload", nil))

			Convey("Then the form posts multipart data", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `enctype="multipart/form-data"`)
				So(w.Body.String(), ShouldContainSubstring, `name="job_desc"`)
			})
		})

		Convey("When a file and a job description are submitted", func() {
			w := serve(h, uploadForm{fileName: "cv.pdf", data: []byte("%PDF-1.4 cv"), jobDesc: "Go developer"}.request())

			Convey("Then exactly one upload request carries both", func() {
				So(deps.count("upload"), ShouldEqual, 1)
				So(deps.uploads[0].Resume.Name, ShouldEqual, "cv.pdf")
				So(string(deps.uploads[0].Resume.Data), ShouldEqual, "%PDF-1.4 cv")
				So(deps.uploads[0].JobDescription, ShouldEqual, "Go developer")
			})

			Convey("And the user is sent to the results view", func() {
				So(w.Code, ShouldEqual, http.StatusSeeOther)
				So(w.Header().Get("Location"), ShouldEqual, "/results")
			})
		})

		Convey("When the file is missing", func() {
			w := serve(h, uploadForm{jobDesc: "Go developer"}.request())

			Convey("Then no request is made and the job description is kept", func() {
				So(deps.count("upload"), ShouldEqual, 0)
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(w.Body.String(), ShouldContainSubstring, MsgMissingUpload)
				So(w.Body.String(), ShouldContainSubstring, "Go developer")
			})
		})

		Convey("When the job description is blank", func() {
			w := serve(h, uploadForm{fileName: "cv.pdf", data: []byte("cv"), jobDesc: "   "}.request())

			Convey("Then no request is made and the file is kept for resubmission", func() {
				So(deps.count("upload"), ShouldEqual, 0)
				So(w.Body.String(), ShouldContainSubstring, MsgMissingUpload)
				So(w.Body.String(), ShouldContainSubstring, "Currently selected: cv.pdf")
				So(deps.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the body is not multipart", func() {
			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("job_desc=x"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := serve(h, req)

			Convey("Then it is a validation failure", func() {
				So(deps.count("upload"), ShouldEqual, 0)
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When the backend rejects the upload with a message", func() {
			deps.upload = func() (model.UploadResponse, error) {
				return model.UploadResponse{Success: false, Message: "Unsupported file type"}, nil
			}
			w := serve(h, uploadForm{fileName: "cv.txt", data: []byte("plain"), jobDesc: "Go developer"}.request())

			Convey("Then the message is shown verbatim and the form is preserved", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "Unsupported file type")
				So(w.Body.String(), ShouldContainSubstring, "Go developer")
				So(w.Body.String(), ShouldContainSubstring, "Currently selected: cv.txt")
				So(w.Body.String(), ShouldContainSubstring, `name="stash"`)
			})

			Convey("And resubmitting without picking the file sends the stashed file", func() {
				m := stashToken.FindStringSubmatch(w.Body.String())
				So(m, ShouldHaveLength, 2)
				token := m[1]

				deps.upload = func() (model.UploadResponse, error) {
					return model.UploadResponse{Success: true}, nil
				}
				w2 := serve(h, uploadForm{jobDesc: "Go developer", token: token}.request())

				So(w2.Code, ShouldEqual, http.StatusSeeOther)
				So(deps.count("upload"), ShouldEqual, 2)
				So(deps.uploads[1].Resume.Name, ShouldEqual, "cv.txt")
				So(deps.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the backend fails without a message", func() {
			deps.upload = func() (model.UploadResponse, error) {
				return model.UploadResponse{}, errors.New("timeout")
			}
			w := serve(h, uploadForm{fileName: "cv.pdf", data: []byte("cv"), jobDesc: "Go"}.request())

			Convey("Then the generic message is shown", func() {
				So(w.Body.String(), ShouldContainSubstring, MsgUploadFailed)
			})
		})

		Convey("When the backend error carries a message", func() {
			deps.upload = func() (model.UploadResponse, error) {
				return model.UploadResponse{}, backendMessageError{msg: "Job description too short"}
			}
			w := serve(h, uploadForm{fileName: "cv.pdf", data: []byte("cv"), jobDesc: "Go"}.request())

			Convey("Then that message is shown", func() {
				So(w.Body.String(), ShouldContainSubstring, "Job description too short")
			})
		})
	})
}

func TestUploadTooLarge(t *testing.T) {
	Convey("Given a router with a tiny upload limit", t, func() {
		deps := newFakeDeps()
		h := newTestRouter(deps, WithMaxUploadBytes(512))

		Convey("When a larger file is submitted", func() {
			w := serve(h, uploadForm{fileName: "cv.pdf", data: bytes.Repeat([]byte("x"), 4096), jobDesc: "Go"}.request())

			Convey("Then it is rejected without a backend call", func() {
				So(deps.count("upload"), ShouldEqual, 0)
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(w.Body.String(), ShouldContainSubstring, MsgTooLarge)
			})
		})
	})
}

func TestResultsView(t *testing.T) {
	Convey("Given the results view", t, func() {
		deps := newFakeDeps()
		h := newTestRouter(deps)

		Convey("When the latest result has no gaps", func() {
			deps.result = func() (model.AnalysisResult, error) {
				return model.AnalysisResult{
					Skills:        []string{"Python", "SQL"},
					JobSkills:     []string{"Python"},
					MatchScore:    82,
					Language:      "en",
					MissingSkills: []string{},
					Typos:         []string{},
					Suggestions:   []string{"Quantify achievements"},
				}, nil
			}
			w := serve(h, httptest.NewRequest(http.MethodGet, "/results", nil))

			Convey("Then every field is rendered with the empty-list texts", func() {
				body := w.Body.String()
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, "Python, SQL")
				So(body, ShouldContainSubstring, "82%")
				So(body, ShouldContainSubstring, "en")
				So(body, ShouldContainSubstring, MsgNoMissing)
				So(body, ShouldContainSubstring, MsgNoTypos)
				So(body, ShouldContainSubstring, "Quantify achievements")
				So(body, ShouldContainSubstring, "Export PDF")
			})
		})

		Convey("When the result lists missing skills and typos", func() {
			deps.result = func() (model.AnalysisResult, error) {
				return model.AnalysisResult{MissingSkills: []string{"Kubernetes"}, Typos: []string{"recieve"}}, nil
			}
			w := serve(h, httptest.NewRequest(http.MethodGet, "/results", nil))

			Convey("Then they are listed instead", func() {
				So(w.Body.String(), ShouldContainSubstring, "Kubernetes")
				So(w.Body.String(), ShouldContainSubstring, "recieve")
				So(w.Body.String(), ShouldNotContainSubstring, MsgNoMissing)
			})
		})

		Convey("When fetching fails", func() {
			w := serve(h, httptest.NewRequest(http.MethodGet, "/results", nil))

			Convey("Then the loading placeholder stays with no error shown", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, MsgLoadingResults)
				So(w.Body.String(), ShouldNotContainSubstring, `class="error"`)
			})
		})

		Convey("When the view is opened twice", func() {
			serve(h, httptest.NewRequest(http.MethodGet, "/results", nil))
			serve(h, httptest.NewRequest(http.MethodGet, "/results", nil))

			Convey("Then the result is fetched each time", func() {
				So(deps.count("results"), ShouldEqual, 2)
			})
		})

		Convey("When the PDF export succeeds", func() {
			deps.export = func() ([]byte, error) { return []byte("%PDF-1.4 report"), nil }
			w := serve(h, httptest.NewRequest(http.MethodPost, "/results", nil))

			Convey("Then the document is offered as a download", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/pdf")
				So(w.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename="resume_analysis.pdf"`)
				So(w.Body.String(), ShouldEqual, "%PDF-1.4 report")
			})
		})

		Convey("When the PDF export fails", func() {
			w := serve(h, httptest.NewRequest(http.MethodPost, "/results", nil))

			Convey("Then the browser gets no content and stays put", func() {
				So(deps.count("export"), ShouldEqual, 1)
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Body.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestHistoryView(t *testing.T) {
	Convey("Given the history view", t, func() {
		deps := newFakeDeps()
		h := newTestRouter(deps)

		Convey("When there is no history", func() {
			deps.history = func() ([]model.HistoryEntry, error) { return []model.HistoryEntry{}, nil }
			w := serve(h, httptest.NewRequest(http.MethodGet, "/history", nil))

			Convey("Then the empty message is shown", func() {
				So(w.Body.String(), ShouldContainSubstring, MsgNoHistory)
			})
		})

		Convey("When there is one entry", func() {
			deps.history = func() ([]model.HistoryEntry, error) {
				return []model.HistoryEntry{{Skills: []string{"Python", "SQL"}, MatchScore: 82, Language: "en"}}, nil
			}
			w := serve(h, httptest.NewRequest(http.MethodGet, "/history", nil))

			Convey("Then the entry shows joined skills and the percentage", func() {
				So(w.Body.String(), ShouldContainSubstring, "Python, SQL")
				So(w.Body.String(), ShouldContainSubstring, "82%")
				So(w.Body.String(), ShouldNotContainSubstring, MsgNoHistory)
			})
		})

		Convey("When fetching fails", func() {
			deps.history = func() ([]model.HistoryEntry, error) { return nil, errors.New("boom") }
			w := serve(h, httptest.NewRequest(http.MethodGet, "/history", nil))

			Convey("Then the loading placeholder stays", func() {
				So(w.Body.String(), ShouldContainSubstring, MsgLoadingHistory)
				So(w.Body.String(), ShouldNotContainSubstring, MsgNoHistory)
			})
		})
	})
}

func TestSiteErrors(t *testing.T) {
	Convey("Given site error helpers", t, func() {
		cause := errors.New("bad template")
		err := WrapKind("render results", ErrRender, cause)

		Convey("Then both the kind and the cause match", func() {
			So(errors.Is(err, ErrRender), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "render results: ")
		})

		Convey("And NewKind keeps the operation", func() {
			So(errors.Is(NewKind("new router", ErrNoDependencies), ErrNoDependencies), ShouldBeTrue)
			So(errors.Is(WrapKind("op", ErrForm, nil), ErrForm), ShouldBeTrue)
		})
	})
}
