package site

import (
	"net/http"
	"strings"

	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/internal/domain/route"
	"github.com/okian/novaspire/pkg/logger"
	"github.com/okian/novaspire/pkg/metrics"
)

// Messages shown by the landing view.
const (
	MsgRegistered         = "Registration successful!"
	MsgRegistrationFailed = "Registration failed. Please try again."
	MsgInvalidCredentials = "Please enter a valid email address and a password."
)

type stat struct{ Value, Label string }

type feature struct{ Title, Text string }

type testimonial struct{ Quote, Name, Role string }

type landingBody struct {
	Email        string
	Stats        []stat
	Features     []feature
	Steps        []feature
	Testimonials []testimonial
}

var (
	landingStats = []stat{
		{"98%", "Interview Rate Increase"},
		{"10,000+", "Professionals Hired"},
		{"4.9/5", "User Satisfaction"},
	}
	landingFeatures = []feature{
		{"ATS Compliance Scan", "Ensure your resume passes through applicant tracking systems with our proprietary scanning technology."},
		{"Real-Time Optimization", "Get instant suggestions to improve your resume's impact and readability."},
		{"Industry-Specific Templates", "Choose from professionally designed templates tailored to your industry."},
	}
	landingSteps = []feature{
		{"Upload Your Resume", "Securely upload your existing resume in any format (PDF, DOCX, TXT)."},
		{"AI Analysis", "Our algorithms scan and evaluate your resume against industry standards."},
		{"Get Optimized", "Receive actionable insights and a perfected resume ready for applications."},
	}
	landingTestimonials = []testimonial{
		{"Novaspire helped me land interviews at Google, Amazon, and Microsoft within two weeks of using their service.", "Sarah Johnson", "Senior Software Engineer"},
		{"After using Novaspire, my response rate from applications increased by 300%. Worth every penny.", "Michael Thompson", "Marketing Director"},
	}
)

func newLandingBody(email string) landingBody {
	return landingBody{
		Email:        email,
		Stats:        landingStats,
		Features:     landingFeatures,
		Steps:        landingSteps,
		Testimonials: landingTestimonials,
	}
}

func (rt *Router) landing(w http.ResponseWriter, r *http.Request) {
	rt.render(w, r, route.Landing, http.StatusOK, "ready", page{
		Title: "Novaspire",
		Body:  newLandingBody(""),
	})
}

// register handles the registration form. Success moves the user to the
// upload view exactly once; anything else keeps them on the landing page.
func (rt *Router) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		rt.log.Warn(ctx, "registration form unreadable", logger.Error(WrapKind("register", ErrForm, err)))
		rt.landingError(w, r, http.StatusBadRequest, "", MsgInvalidCredentials)
		return
	}

	creds := model.Credentials{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	if err := creds.Validate(); err != nil {
		rt.log.Debug(ctx, "registration rejected before backend call", logger.Error(err))
		rt.landingError(w, r, http.StatusUnprocessableEntity, creds.Email, MsgInvalidCredentials)
		return
	}

	resp, err := rt.deps.Register(ctx, creds)
	switch {
	case err != nil:
		rt.log.Error(ctx, "registration failed", logger.Error(err))
	case !resp.Success:
		rt.log.Info(ctx, "registration declined by backend")
	default:
		setFlash(w, MsgRegistered)
		rt.navigate(w, r, route.Landing.String(), route.Upload, http.StatusSeeOther)
		return
	}
	metrics.RecordErrorByComponent("site", "register")
	rt.landingError(w, r, http.StatusOK, creds.Email, MsgRegistrationFailed)
}

func (rt *Router) landingError(w http.ResponseWriter, r *http.Request, status int, email, msg string) {
	rt.render(w, r, route.Landing, status, "error", page{
		Title: "Novaspire",
		Error: msg,
		Body:  newLandingBody(email),
	})
}
