package web

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ladeflyt/grunnlag/internal/http/httperror"
	"github.com/ladeflyt/grunnlag/internal/invoice"
	"github.com/ladeflyt/grunnlag/internal/zaptec"
)

// exportRequest is the validated common portion of the export forms.
type exportRequest struct {
	Year        int
	Month       time.Month
	PricePerKWh float64
}

// Period returns the half-open UTC interval covering the billing period. December rolls into
// January of the next year.
func (r exportRequest) Period() (time.Time, time.Time) {
	from := time.Date(r.Year, r.Month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Closed reports whether the billing period ends before the current month, meaning its charge
// history can no longer change.
func (r exportRequest) Closed() bool {
	_, to := r.Period()
	now := time.Now().UTC()
	return !to.After(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
}

// parseExportRequest validates the year, month and price form fields shared by both export
// endpoints.
func parseExportRequest(c *gin.Context) (exportRequest, error) {
	year, err := strconv.Atoi(c.PostForm("year"))
	if err != nil || year < 2000 {
		return exportRequest{}, httperror.New(http.StatusBadRequest, "Invalid date")
	}

	month, err := strconv.Atoi(c.PostForm("month"))
	if err != nil || month < 1 || month > 12 {
		return exportRequest{}, httperror.New(http.StatusBadRequest, "Invalid date")
	}

	price, err := strconv.ParseFloat(c.PostForm("nok_per_kwh"), 64)
	if err != nil || price < 0 {
		return exportRequest{}, httperror.New(http.StatusBadRequest, "Invalid NOK per kWh")
	}

	return exportRequest{Year: year, Month: time.Month(month), PricePerKWh: price}, nil
}

func (f Frontend) postExport(c *gin.Context) {
	sess := sessionFrom(c)

	req, err := parseExportRequest(c)
	if err != nil {
		f.renderExportError(c, err)
		return
	}

	installationID := c.PostForm("installation_id")
	installationName := c.PostForm("installation_name")
	if installationID == "" {
		f.renderExportError(c, httperror.New(http.StatusBadRequest, "Missing installation"))
		return
	}

	sessions, err := f.chargeHistory(c, sess.AccessToken, installationID, req)
	if err != nil {
		if errors.Is(err, zaptec.ErrUnauthorized) {
			f.clearSession(c)
			c.Redirect(http.StatusTemporaryRedirect, "/login")
			return
		}

		f.log.Error(err, "Failed to fetch charge history", "installation_id", installationID)
		f.renderExportError(c, err)
		return
	}

	pdf, err := invoice.Generate(toInvoice(installationID, installationName, req, sessions))
	if err != nil {
		f.log.Error(err, "Failed to generate invoice")
		f.renderExportError(c, httperror.Wrap(http.StatusInternalServerError, err))
		return
	}

	filename := exportFilename(req, installationName, installationID) + ".pdf"
	c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (f Frontend) postExportAll(c *gin.Context) {
	sess := sessionFrom(c)

	req, err := parseExportRequest(c)
	if err != nil {
		f.renderExportError(c, err)
		return
	}

	installations, err := f.api.Installations(c, sess.AccessToken)
	if err != nil {
		if errors.Is(err, zaptec.ErrUnauthorized) {
			f.clearSession(c)
			c.Redirect(http.StatusTemporaryRedirect, "/login")
			return
		}

		f.log.Error(err, "Failed to list installations")
		f.renderExportError(c, err)
		return
	}

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	for _, installation := range installations {
		sessions, err := f.chargeHistory(c, sess.AccessToken, installation.ID, req)
		if err != nil {
			// One installation failing shouldn't sink the whole archive.
			f.log.Error(err, "Skipping installation", "installation_id", installation.ID)
			continue
		}

		pdf, err := invoice.Generate(toInvoice(installation.ID, installation.Name, req, sessions))
		if err != nil {
			f.log.Error(err, "Skipping installation", "installation_id", installation.ID)
			continue
		}

		entry, err := archive.Create(exportFilename(req, installation.Name, installation.ID) + ".pdf")
		if err != nil {
			f.renderExportError(c, httperror.Wrap(http.StatusInternalServerError, err))
			return
		}

		if _, err := entry.Write(pdf); err != nil {
			f.renderExportError(c, httperror.Wrap(http.StatusInternalServerError, err))
			return
		}
	}

	if err := archive.Close(); err != nil {
		f.renderExportError(c, httperror.Wrap(http.StatusInternalServerError, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%d_%02d.zip", req.Year, int(req.Month)))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// chargeHistory fetches the charge history for an export, consulting the cache for closed
// periods.
func (f Frontend) chargeHistory(c *gin.Context, token, installationID string, req exportRequest) ([]zaptec.ChargeSession, error) {
	cacheable := f.history != nil && req.Closed()
	key := fmt.Sprintf("%s_%d-%02d", installationID, req.Year, int(req.Month))

	if cacheable {
		var sessions []zaptec.ChargeSession
		if f.history.Get(key, &sessions) {
			return sessions, nil
		}
	}

	from, to := req.Period()
	sessions, err := f.api.ChargeHistory(c, token, installationID, from, to)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := f.history.Set(key, sessions); err != nil {
			f.log.Error(err, "Failed to cache charge history", "key", key)
		}
	}

	return sessions, nil
}

// renderExportError re-renders the home page with an error message, using the status code
// embedded in err when there is one.
func (f Frontend) renderExportError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var httpErr *httperror.E
	if errors.As(err, &httpErr) {
		status = httpErr.StatusCode
	}

	now := time.Now()
	c.HTML(status, "home.html", gin.H{
		"year":  now.Year(),
		"month": int(now.Month()),
		"error": err.Error(),
	})
}

func toInvoice(id, name string, req exportRequest, sessions []zaptec.ChargeSession) invoice.Invoice {
	inv := invoice.Invoice{
		InstallationID:   id,
		InstallationName: name,
		Year:             req.Year,
		Month:            req.Month,
		PricePerKWh:      req.PricePerKWh,
	}

	for _, s := range sessions {
		inv.Sessions = append(inv.Sessions, invoice.Session{
			Start:      s.StartDateTime,
			End:        s.EndDateTime,
			DeviceName: s.DeviceName,
			Energy:     s.Energy,
		})
	}

	return inv
}

func exportFilename(req exportRequest, name, id string) string {
	display := name
	if display == "" {
		display = id
	}

	return fmt.Sprintf("%d_%02d_grunnlag_%s", req.Year, int(req.Month), safeFilename(display))
}
