package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jobbridge/job-platform/internal/application"
	"github.com/jobbridge/job-platform/internal/email"
	"github.com/jobbridge/job-platform/internal/job"
	"github.com/jobbridge/job-platform/internal/middleware"
	"github.com/jobbridge/job-platform/internal/server"

	"github.com/gorilla/mux"
)

// GetDraftHandler returns the saved cover letter draft for a job, or an
// empty draft when none was saved.
func GetDraftHandler(svr server.Server, drafts *application.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		text, err := drafts.Load(r.Context(), claims.UserID, vars["jobID"])
		if err != nil {
			svr.Log(err, "unable to load application draft")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"coverLetter": text})
	}
}

// SaveDraftHandler overwrites the cover letter draft for a job.
// Last write wins.
func SaveDraftHandler(svr server.Server, drafts *application.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var req struct {
			CoverLetter string `json:"coverLetter"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		vars := mux.Vars(r)
		if err := drafts.Save(r.Context(), claims.UserID, vars["jobID"], req.CoverLetter); err != nil {
			svr.Log(err, "unable to save application draft")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusNoContent, nil)
	}
}

// DeleteDraftHandler discards the cover letter draft for a job.
func DeleteDraftHandler(svr server.Server, drafts *application.DraftStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		if err := drafts.Clear(r.Context(), claims.UserID, vars["jobID"]); err != nil {
			svr.Log(err, "unable to clear application draft")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusNoContent, nil)
	}
}

// ApplyToJobHandler accepts a completed application for a job post.
// The multipart body carries the cover letter and an optional resume file.
func ApplyToJobHandler(
	svr server.Server,
	jobRepo *job.Repository,
	appRepo *application.Repository,
	drafts *application.DraftStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		j, err := jobRepo.JobPostByExternalID(vars["jobID"])
		if err != nil {
			svr.JSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		if j.ApprovedAt == nil {
			svr.JSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		if j.ClosedAt != nil {
			svr.JSON(w, http.StatusGone, map[string]string{"error": "job is no longer accepting applications"})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, application.MaxResumeSizeBytes+1024*1024)
		if err := r.ParseMultipartForm(application.MaxResumeSizeBytes); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				svr.JSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": application.ErrResumeTooLarge.Error()})
				return
			}
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "unable to parse application form"})
			return
		}

		wizard := application.NewWizard(j.ID, claims.UserID)
		wizard.SetCoverLetter(r.FormValue("cover_letter"))
		if err := wizard.Advance(); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		file, header, err := r.FormFile("resume")
		if err != nil && err != http.ErrMissingFile {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "unable to read resume file"})
			return
		}
		if err == nil {
			defer file.Close()
			mimeType := header.Header.Get("Content-Type")
			if acceptErr := application.AcceptResume(header.Filename, mimeType, header.Size); acceptErr != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]string{"error": acceptErr.Error()})
				return
			}
			data, readErr := io.ReadAll(file)
			if readErr != nil {
				svr.Log(readErr, "unable to read resume file contents")
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			if attachErr := wizard.Attach(application.ResumeAttachment{
				Filename:  header.Filename,
				SizeBytes: header.Size,
				MimeType:  mimeType,
				Data:      data,
			}); attachErr != nil {
				svr.JSON(w, http.StatusBadRequest, map[string]string{"error": attachErr.Error()})
				return
			}
		}
		if err := wizard.Advance(); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		sub, err := wizard.Submit()
		if err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		app, err := appRepo.SubmitApplication(r.Context(), sub)
		wizard.Settle()
		if errors.Is(err, application.ErrAlreadyApplied) {
			svr.JSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			svr.Log(err, "unable to submit application")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": "unable to submit application"})
			return
		}

		if err := svr.CacheDelete(server.CacheKeyMyApplicationsPrefix + claims.UserID); err != nil {
			svr.Log(err, "unable to invalidate my applications cache")
		}
		if err := svr.CacheDelete(fmt.Sprintf("%s%d", server.CacheKeyJobApplicantsPrefix, j.ID)); err != nil {
			svr.Log(err, "unable to invalidate job applicants cache")
		}
		if err := drafts.Clear(r.Context(), claims.UserID, j.ExternalID); err != nil {
			svr.Log(err, "unable to clear application draft after submit")
		}
		if j.CompanyEmail != "" {
			err = svr.GetEmail().SendHTMLEmail(
				email.Address{Name: svr.GetEmail().DefaultSenderName(), Email: svr.GetEmail().NoReplySenderAddress()},
				email.Address{Email: j.CompanyEmail},
				email.Address{Email: claims.Email},
				fmt.Sprintf("New Applicant from %s", svr.GetConfig().SiteName),
				fmt.Sprintf(
					"Hi, %s applied for your position %s.<br />Cover letter:<br />%s",
					claims.Email, j.JobTitle, sub.CoverLetter,
				),
			)
			if err != nil {
				svr.Log(err, "unable to send applicant notification email")
			}
		}

		svr.JSON(w, http.StatusCreated, app)
	}
}

// MyApplicationsHandler lists the signed in user's submitted applications.
// The response is cached until the user submits again.
func MyApplicationsHandler(svr server.Server, appRepo *application.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		cacheKey := server.CacheKeyMyApplicationsPrefix + claims.UserID
		if cached, ok := svr.CacheGet(cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
		apps, err := appRepo.ApplicationsByUser(r.Context(), claims.UserID)
		if err != nil {
			svr.Log(err, "unable to retrieve applications")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		buf, err := json.Marshal(apps)
		if err != nil {
			svr.Log(err, "unable to marshal applications")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if err := svr.CacheSet(cacheKey, buf); err != nil {
			svr.Log(err, "unable to cache my applications view")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(buf)
	}
}

// JobApplicantsHandler lists the applicants for one of the company's job
// posts. The response is cached until a new application arrives.
func JobApplicantsHandler(svr server.Server, jobRepo *job.Repository, appRepo *application.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsCompany && !claims.IsAdmin {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		vars := mux.Vars(r)
		j, err := jobRepo.JobPostByExternalID(vars["jobID"])
		if err != nil {
			svr.JSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		cacheKey := fmt.Sprintf("%s%d", server.CacheKeyJobApplicantsPrefix, j.ID)
		if cached, ok := svr.CacheGet(cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
		apps, err := appRepo.ApplicantsForJob(r.Context(), j.ID)
		if err != nil {
			svr.Log(err, "unable to retrieve applicants")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		buf, err := json.Marshal(apps)
		if err != nil {
			svr.Log(err, "unable to marshal applicants")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if err := svr.CacheSet(cacheKey, buf); err != nil {
			svr.Log(err, "unable to cache job applicants view")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(buf)
	}
}

// DownloadResumeHandler serves the resume file attached to an application.
func DownloadResumeHandler(svr server.Server, appRepo *application.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsCompany && !claims.IsAdmin {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		vars := mux.Vars(r)
		filename, data, err := appRepo.ResumeForApplication(r.Context(), vars["id"])
		if err != nil || len(data) == 0 {
			svr.JSON(w, http.StatusNotFound, map[string]string{"error": "resume not found"})
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		svr.MEDIA(w, http.StatusOK, data, "application/octet-stream")
	}
}
