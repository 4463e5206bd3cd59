package web

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/adjust"
	"github.com/jkaflik/birdcam/internal/device"
	"github.com/jkaflik/birdcam/internal/page"
	"github.com/jkaflik/birdcam/internal/query"
	"github.com/jkaflik/birdcam/internal/shutter/driver/servo"
	"github.com/jkaflik/birdcam/internal/site"
)

var errMissingQuery = errors.New("missing query")

// run renders the page built by fn on the loop goroutine.
func (s *Server) run(w http.ResponseWriter, r *http.Request, fn func(sh *servo.Shutter) (page.Page, error)) {
	var (
		p   page.Page
		err error
	)

	if doErr := s.loop.Do(r.Context(), func(sh *servo.Shutter) {
		p, err = fn(sh)
	}); doErr != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(doErr, device.ErrPanicked) {
			status = http.StatusInternalServerError
		}
		s.respondError(w, status, doErr)
		return
	}

	if errors.Is(err, adjust.ErrUnknownAction) {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	s.render(w, p)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(sh *servo.Shutter) (page.Page, error) {
		return page.Index(sh.IsClosed()), nil
	})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(sh *servo.Shutter) (page.Page, error) {
		sh.Open()
		sh.WaitUntilIdle()
		return page.Opened(), nil
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, closePage)
}

func closePage(sh *servo.Shutter) (page.Page, error) {
	sh.Close()
	sh.WaitUntilIdle()
	return page.Closed(), nil
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, func(sh *servo.Shutter) (page.Page, error) {
		return adjust.New(sh).Enter(), nil
	})
}

func (s *Server) handleAdjustSubmit(w http.ResponseWriter, r *http.Request) {
	values := query.Parse(r.URL.RawQuery)
	if values.Len() == 0 {
		s.respondError(w, http.StatusBadRequest, errMissingQuery)
		return
	}

	s.run(w, r, func(sh *servo.Shutter) (page.Page, error) {
		var (
			p   page.Page
			err error
		)
		p, s.session, err = adjust.New(sh).Submit(s.session, values)
		return p, err
	})
}

func (s *Server) handleSiteInfo(w http.ResponseWriter, r *http.Request) {
	s.render(w, page.SiteInfo(site.Load(s.store)))
}

func (s *Server) handleSiteInfoSubmit(w http.ResponseWriter, r *http.Request) {
	values := query.Parse(r.URL.RawQuery)

	switch exit := values.Get("Exit"); exit {
	case "OK":
		info := site.Load(s.store)
		if values.Has("sitename") {
			info.Name = values.Get("sitename")
		}
		if values.Has("comment") {
			info.Comment = values.Get("comment")
		}
		if err := site.Save(s.store, info); err != nil {
			s.respondError(w, http.StatusInternalServerError, err)
			return
		}
		logrus.Infof("web: site info set to %q", info.Name)
	case "Cancel":
	default:
		s.respondError(w, http.StatusBadRequest, errors.Errorf("unknown site info exit %q", exit))
		return
	}

	s.run(w, r, closePage)
}

type status struct {
	device.Status
	Site site.Info `json:"site"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, status{
		Status: s.loop.Status(),
		Site:   site.Load(s.store),
	})
}
