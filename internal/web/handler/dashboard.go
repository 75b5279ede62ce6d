package handler

import (
	"html/template"
	"net/http"

	"github.com/batchtrace/batchtrace/internal/batch"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// dashboardTmpl renders the latest version of every batch as a table.
const dashboardTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>BatchTrace — Batch Overview</title>
  <style>
    body { font-family: sans-serif; margin: 2rem; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #ccc; padding: 0.4rem 0.8rem; text-align: left; }
    th { background: #f0f0f0; }
    .status-pending { color: #b8860b; }
    .status-released { color: #2e7d32; }
  </style>
</head>
<body>
  <h1>Manufacturing Batches</h1>
  {{if .Batches}}
  <table>
    <tr>
      <th>Batch Number</th>
      <th>Manufacture Date</th>
      <th>Expiration Date</th>
      <th>Release Status</th>
      <th>QC Tests</th>
      <th>Deviations</th>
      <th>CAPA</th>
      <th>OOS</th>
    </tr>
    {{range .Batches}}
    <tr>
      <td>{{.BatchNumber}}</td>
      <td>{{.ManufactureDate}}</td>
      <td>{{.ExpirationDate}}</td>
      <td class="status-{{.ReleaseStatus}}">{{.ReleaseStatus}}</td>
      <td>{{len .QCTests}}</td>
      <td>{{len .Deviations}}</td>
      <td>{{len .CAPA}}</td>
      <td>{{len .OOSInvestigations}}</td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p>No batches recorded yet.</p>
  {{end}}
</body>
</html>
`

// DashboardHandler serves the read-only HTML overview of all batches.
type DashboardHandler struct {
	svc    *batch.Service
	tmpl   *template.Template
	logger *zap.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(svc *batch.Service, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		svc:    svc,
		tmpl:   template.Must(template.New("dashboard").Parse(dashboardTmpl)),
		logger: logger,
	}
}

// Index handles GET / — the latest version of every batch.
func (h *DashboardHandler) Index(c *gin.Context) {
	records, err := h.svc.Latest(c.Request.Context())
	if err != nil {
		h.logger.Error("dashboard: load batches", zap.Error(err))
		c.String(http.StatusBadGateway, "ledger unavailable")
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(c.Writer, gin.H{"Batches": records}); err != nil {
		h.logger.Error("dashboard: render", zap.Error(err))
	}
}
