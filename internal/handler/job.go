package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jobbridge/job-platform/internal/job"
	"github.com/jobbridge/job-platform/internal/middleware"
	"github.com/jobbridge/job-platform/internal/server"

	"github.com/gorilla/feeds"
	"github.com/gorilla/mux"
	"github.com/snabb/sitemap"
)

// JobsHandler lists approved job posts with pagination and optional
// location and keyword filters.
func JobsHandler(svr server.Server, jobRepo *job.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location := r.URL.Query().Get("l")
		keyword := r.URL.Query().Get("q")
		page := r.URL.Query().Get("p")
		pageID, err := strconv.Atoi(page)
		if err != nil || pageID < 1 {
			pageID = 1
		}
		jobsPerPage := svr.GetConfig().JobsPerPage
		jobs, total, err := jobRepo.JobsByQuery(location, keyword, pageID, jobsPerPage)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"jobs":  jobs,
			"total": total,
			"page":  pageID,
			"pages": (total + jobsPerPage - 1) / jobsPerPage,
		})
	}
}

// JobBySlugHandler returns one approved job post with its description
// rendered to sanitised HTML.
func JobBySlugHandler(svr server.Server, jobRepo *job.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		j, err := jobRepo.JobPostBySlug(vars["slug"])
		if err != nil {
			svr.JSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		j.DescriptionHTML = job.MarkdownToHTML(j.Description)
		svr.JSON(w, http.StatusOK, j)
	}
}

// PostJobHandler accepts a new job post from a company account.
func PostJobHandler(svr server.Server, jobRepo *job.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromRequest(r, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsCompany && !claims.IsAdmin {
			svr.JSON(w, http.StatusForbidden, map[string]string{"error": "only company accounts can post jobs"})
			return
		}
		var jobRq job.JobRq
		if err := json.NewDecoder(r.Body).Decode(&jobRq); err != nil {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
			return
		}
		if jobRq.JobTitle == "" || jobRq.Company == "" || jobRq.Description == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "job title, company and description are required"})
			return
		}
		if jobRq.CompanyEmail != "" && !svr.IsEmail(jobRq.CompanyEmail) {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company email"})
			return
		}
		j, err := jobRepo.SaveJob(&jobRq)
		if err != nil {
			svr.Log(err, "unable to save job post")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": "unable to save job post"})
			return
		}
		svr.JSON(w, http.StatusCreated, j)
	}
}

// ApproveJobHandler publishes a pending job post.
func ApproveJobHandler(svr server.Server, jobRepo *job.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := jobRepo.ApproveJob(vars["id"]); err != nil {
			svr.Log(err, "unable to approve job post")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "approved"})
	}
}

// CloseJobHandler closes a job post to new applications.
func CloseJobHandler(svr server.Server, jobRepo *job.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := jobRepo.CloseJob(vars["id"]); err != nil {
			svr.Log(err, "unable to close job post")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]string{"status": "closed"})
	}
}

// ServeRSSFeed renders the latest job posts as an RSS feed.
func ServeRSSFeed(svr server.Server, jobRepo *job.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobPosts, err := jobRepo.GetLastNJobs(20, r.URL.Query().Get("l"))
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for RSS feed")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		cfg := svr.GetConfig()
		siteURL := cfg.URLProtocol + cfg.SiteHost
		now := time.Now()
		feed := &feeds.Feed{
			Title:       fmt.Sprintf("%s Jobs", cfg.SiteName),
			Link:        &feeds.Link{Href: siteURL},
			Description: fmt.Sprintf("%s Jobs", cfg.SiteName),
			Author:      &feeds.Author{Name: cfg.SiteName, Email: cfg.SupportEmail},
			Created:     now,
		}
		for _, j := range jobPosts {
			created := j.CreatedAt
			if j.ApprovedAt != nil {
				created = *j.ApprovedAt
			}
			feed.Items = append(feed.Items, &feeds.Item{
				Title:       fmt.Sprintf("%s with %s - %s", j.JobTitle, j.Company, j.Location),
				Link:        &feeds.Link{Href: fmt.Sprintf("%s/jobs/%s", siteURL, j.Slug)},
				Description: job.MarkdownToHTML(j.Description + "\n\n**Salary Range:** " + j.SalaryRange),
				Author:      &feeds.Author{Name: cfg.SiteName, Email: cfg.SupportEmail},
				Created:     created,
			})
		}
		rssFeed, err := feed.ToRss()
		if err != nil {
			svr.Log(err, "unable to convert rss feed to xml")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		svr.XML(w, http.StatusOK, []byte(rssFeed))
	}
}

// SitemapHandler renders a sitemap of all published job posts.
func SitemapHandler(svr server.Server, jobRepo *job.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobPosts, err := jobRepo.GetLastNJobs(1000, "")
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for sitemap")
			svr.TEXT(w, http.StatusInternalServerError, "unable to fetch sitemap")
			return
		}
		cfg := svr.GetConfig()
		siteURL := cfg.URLProtocol + cfg.SiteHost
		sitemapFile := sitemap.New()
		lastMod := time.Now().UTC()
		sitemapFile.Add(&sitemap.URL{
			Loc:        siteURL,
			LastMod:    &lastMod,
			ChangeFreq: sitemap.Daily,
		})
		for _, j := range jobPosts {
			jobLastMod := j.CreatedAt
			if j.ApprovedAt != nil {
				jobLastMod = *j.ApprovedAt
			}
			sitemapFile.Add(&sitemap.URL{
				Loc:        fmt.Sprintf("%s/jobs/%s", siteURL, j.Slug),
				LastMod:    &jobLastMod,
				ChangeFreq: sitemap.Weekly,
			})
		}
		buf := new(bytes.Buffer)
		if _, err := sitemapFile.WriteTo(buf); err != nil {
			svr.Log(err, "sitemapFile.WriteTo")
			svr.TEXT(w, http.StatusInternalServerError, "unable to write sitemap file")
			return
		}
		svr.XML(w, http.StatusOK, buf.Bytes())
	}
}
